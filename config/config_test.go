package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=sqlite\nS3_BUCKET=videos-test\nALLOWED_ORIGINS=https://a.example, https://b.example\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))
	t.Setenv("S3_BUCKET", "from-env")
	t.Setenv("SESSION_TTL_HOURS", "2")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "from-env", cfg.S3Bucket)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, int64(2048), cfg.MaxUploadMB)
}

func TestValidateRequiresSecretsForPostgres(t *testing.T) {
	cfg := Config{DBDriver: "postgres", SessionTTLHours: 1, AllowedOrigins: "http://localhost:3000"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "TOKEN_SECRET")

	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	cfg.TokenSecret = "token"
	assert.NoError(t, cfg.Validate())

	cfg.AllowedOrigins = " , "
	assert.Error(t, cfg.Validate())

	cfg.AllowedOrigins = "http://localhost:3000"
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestGoogleEnabled(t *testing.T) {
	assert.False(t, Config{GoogleClientID: "id"}.GoogleEnabled())
	assert.True(t, Config{GoogleClientID: "id", GoogleClientSecret: "s", GoogleRedirectURL: "http://x/cb"}.GoogleEnabled())
}
