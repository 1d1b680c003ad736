package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PORT", "9090")
	t.Setenv("ENABLE_CACHE", "true")
	t.Setenv("MISSING_GRADES_CACHE_TTL", "90s")
	t.Setenv("EXPORTS_DRIVER", "S3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.MissingGradesTTL)
	assert.Equal(t, StorageDriverS3, cfg.Exports.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Exports.SignedURLTTL)
}

func TestParseDurationFallsBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
