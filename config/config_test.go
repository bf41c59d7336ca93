package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8083", cfg.Address)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Provider.TextModel)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Provider.ImageModel)
	assert.Equal(t, 60*time.Second, cfg.Provider.RecommendationTimeout)
	assert.Equal(t, 45*time.Second, cfg.Provider.AnalysisTimeout)
	assert.Equal(t, 90*time.Second, cfg.Provider.IllustrationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Geocode.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, int64(10<<20), cfg.MaxPhotoBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ANALYSIS_TIMEOUT", "10s")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USERNAME", "vogue")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "looks")
	t.Setenv("R2_BUCKET_NAME", "looks-bucket")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Provider.AnalysisTimeout)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, "postgres://vogue:pw@db.internal:5432/looks", cfg.Database.DSN())
	assert.Equal(t, "looks-bucket", cfg.Storage.BucketName)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
