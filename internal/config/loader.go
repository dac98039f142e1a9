package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MOONFOLIO_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MOONFOLIO_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Database.DSN, "MOONFOLIO_DATABASE_DSN")
	setStr(&cfg.Database.Host, "MOONFOLIO_DATABASE_HOST")
	setInt(&cfg.Database.Port, "MOONFOLIO_DATABASE_PORT")
	setStr(&cfg.Database.Database, "MOONFOLIO_DATABASE_NAME")
	setStr(&cfg.Database.User, "MOONFOLIO_DATABASE_USER")
	setStr(&cfg.Database.Password, "MOONFOLIO_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "MOONFOLIO_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "MOONFOLIO_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "MOONFOLIO_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "MOONFOLIO_DATABASE_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "MOONFOLIO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MOONFOLIO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MOONFOLIO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MOONFOLIO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MOONFOLIO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MOONFOLIO_REDIS_TLS_ENABLED")

	setStr(&cfg.S3.Endpoint, "MOONFOLIO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MOONFOLIO_S3_REGION")
	setStr(&cfg.S3.Bucket, "MOONFOLIO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MOONFOLIO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MOONFOLIO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MOONFOLIO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MOONFOLIO_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Mail.Host, "MOONFOLIO_MAIL_HOST")
	setInt(&cfg.Mail.Port, "MOONFOLIO_MAIL_PORT")
	setStr(&cfg.Mail.User, "MOONFOLIO_MAIL_USER")
	setStr(&cfg.Mail.Password, "MOONFOLIO_MAIL_PASSWORD")
	setStr(&cfg.Mail.From, "MOONFOLIO_MAIL_FROM")
	setStringSlice(&cfg.Mail.To, "MOONFOLIO_MAIL_TO")

	setStringSlice(&cfg.Import.Assets, "MOONFOLIO_IMPORT_ASSETS")
	setStringSlice(&cfg.Notify.Events, "MOONFOLIO_NOTIFY_EVENTS")

	setStr(&cfg.LogLevel, "MOONFOLIO_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
