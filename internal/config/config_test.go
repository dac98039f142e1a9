package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Import.Assets)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[database]
host = "db.internal"
database = "folio"

[mail]
host = "smtp.internal"
from = "folio@internal"
to = ["ops@internal"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.NotEmpty(t, cfg.Import.Assets)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MOONFOLIO_DATABASE_PASSWORD", "hunter2")
	t.Setenv("MOONFOLIO_REDIS_ADDR", "cache:6379")
	t.Setenv("MOONFOLIO_IMPORT_ASSETS", "BTC, ETH ,EUR")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"BTC", "ETH", "EUR"}, cfg.Import.Assets)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Config{
		LogLevel: "loud",
		Mail:     MailConfig{Host: "smtp.internal"},
		S3:       S3Config{Bucket: "archive"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "asset priority list")
	assert.Contains(t, err.Error(), "region is required")
	assert.Contains(t, err.Error(), "from address is required")
}
