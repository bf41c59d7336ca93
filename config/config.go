package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Database struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	Name     string `env:"NAME"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", d.Username, d.Password, d.Host, d.Port, d.Name)
}

type Storage struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	BucketName      string `env:"BUCKET_NAME"`
}

type Provider struct {
	APIKey     string `env:"GOOGLE_API_KEY"`
	TextModel  string `env:"TEXT_MODEL" envDefault:"gemini-3-flash-preview"`
	ImageModel string `env:"IMAGE_MODEL" envDefault:"gemini-2.5-flash-image"`

	RecommendationTimeout time.Duration `env:"RECOMMENDATION_TIMEOUT" envDefault:"60s"`
	AnalysisTimeout       time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"45s"`
	IllustrationTimeout   time.Duration `env:"ILLUSTRATION_TIMEOUT" envDefault:"90s"`
}

type Breaker struct {
	Enabled         bool          `env:"ENABLED" envDefault:"true"`
	MinRequests     uint32        `env:"MIN_REQUESTS" envDefault:"10"`
	FailureRatio    float64       `env:"FAILURE_RATIO" envDefault:"0.5"`
	OpenTimeout     time.Duration `env:"OPEN_TIMEOUT" envDefault:"30s"`
	HalfOpenMaxCall uint32        `env:"HALF_OPEN_MAX_CALLS" envDefault:"2"`
}

type Geocode struct {
	URL     string        `env:"URL" envDefault:"https://api.bigdatacloud.net/data/reverse-geocode-client"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	RPS     float64       `env:"RPS" envDefault:"5"`
}

type Config struct {
	Address   string `env:"ADDRESS" envDefault:":8083"`
	Env       string `env:"ENV" envDefault:"local"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`
	SentryDSN string `env:"SENTRY_DSN"`
	JWTSecret string `env:"JWT_SECRET"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	MaxPhotoBytes int64         `env:"MAX_PHOTO_BYTES" envDefault:"10485760"`
	RateLimitRPS  float64       `env:"RATE_LIMIT_RPS" envDefault:"10"`

	AsyncBrokerAddress string `env:"ASYNC_BROKER_ADDRESS" envDefault:"localhost:6379"`

	Provider Provider `envPrefix:""`
	Breaker  Breaker  `envPrefix:"BREAKER_"`
	Geocode  Geocode  `envPrefix:"GEOCODE_"`
	Database Database `envPrefix:"DB_"`
	Storage  Storage  `envPrefix:"R2_"`
}

// Load reads .env when present and parses the environment into Config.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return cfg, nil
}
