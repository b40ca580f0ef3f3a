package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("SUMMARY_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, 10*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JobRetention)
	assert.Equal(t, int64(512)<<20, cfg.MaxUploadBytes())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TIMEOUT", "90s")
	t.Setenv("MAX_UPLOAD_MB", "2")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 90*time.Second, cfg.JobTimeout)
	assert.Equal(t, int64(2)<<20, cfg.MaxUploadBytes())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"integer", "WORKER_COUNT", "many"},
		{"duration", "JOB_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestBlankVariablesKeepDefaults(t *testing.T) {
	t.Setenv("JOB_TIMEOUT", "  ")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JobTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnvTransformFunc(t *testing.T) {
	key, value := envTransformFunc("SUMMARY_CACHE_TTL", "5m")
	assert.Equal(t, "summary_cache_ttl", key)
	assert.Equal(t, "5m", value)

	key, _ = envTransformFunc("REDIS_URL", "")
	assert.Empty(t, key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HT_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("HT_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("HT_DOTENV_PROBE"))
}

func TestLoadDotEnvMissingIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
