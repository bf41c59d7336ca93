package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vogueapi/config"
	"vogueapi/controllers"
	"vogueapi/dbhelper"
	"vogueapi/logging"
	"vogueapi/metrics"
	"vogueapi/resilience"
	"vogueapi/services"
	"vogueapi/session"
	"vogueapi/tasks"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "vogueapi@1.0.0",
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()
	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:          cfg.Breaker.Enabled,
		BreakerMinRequests:      cfg.Breaker.MinRequests,
		BreakerFailureRatio:     cfg.Breaker.FailureRatio,
		BreakerOpenTimeout:      cfg.Breaker.OpenTimeout,
		BreakerHalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCall,
		DefaultTimeout:          cfg.Provider.RecommendationTimeout,
	})
	stylist, err := services.NewStylistService(ctx, cfg.Provider, executor, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize stylist provider")
	}
	geocoder, err := services.NewGeocodeService(cfg.Geocode)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize geocoder")
	}
	store := session.NewStore(stylist, cfg.SessionTTL, registry)

	deps := controllers.Dependencies{
		Sessions:       store,
		Geocoder:       geocoder,
		Metrics:        registry,
		JWTSecret:      cfg.JWTSecret,
		MaxPhotoBytes:  cfg.MaxPhotoBytes,
		GeocodeTimeout: cfg.Geocode.Timeout,
	}

	if cfg.Database.Name != "" {
		db, err := dbhelper.SetupDB(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		deps.DB = db

		asynqClient := tasks.NewClient(cfg.AsyncBrokerAddress)
		defer asynqClient.Close()
		deps.Enqueuer = asynqClient

		awsService := &services.AWSService{Storage: cfg.Storage}
		if err := awsService.InitClient(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize AWS provider: S3")
		}
		urlCache, err := services.NewURLCacheService(awsService, cfg.Storage.BucketName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize URL cache service")
		}
		deps.URLCache = urlCache
	} else {
		log.Warn().Msg("DB_NAME is not set, saved looks are disabled")
	}

	e := controllers.SetupServer(deps)
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	go func() {
		log.Info().Str("address", cfg.Address).Msg("starting api")
		if err := e.Start(cfg.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	store.Shutdown(shutdownCtx)
}
