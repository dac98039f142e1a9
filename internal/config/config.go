// Package config defines the top-level configuration for the moonfolio
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MOONFOLIO_* environment
// variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Mail     MailConfig     `toml:"mail"`
	Import   ImportConfig   `toml:"import"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional position-cache connection parameters. An
// empty Addr disables the cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the optional import-archive object storage parameters. An
// empty Bucket disables archiving.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MailConfig holds the optional SMTP parameters for import reports. An empty
// Host disables mail.
type MailConfig struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	User     string   `toml:"user"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// ImportConfig drives CSV import and pair decomposition.
type ImportConfig struct {
	// Assets is the ordered priority list used to split pair symbols into
	// base and quote. Order matters: a symbol that is a substring of
	// another must be listed so the more specific match is found first.
	Assets []string `toml:"assets"`
}

// NotifyConfig filters which events produce notifications. Empty means all.
type NotifyConfig struct {
	Events []string `toml:"events"`
}

// Defaults returns the built-in configuration, including the curated asset
// priority list.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "moonfolio",
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Mail: MailConfig{
			Port: 587,
		},
		Import: ImportConfig{
			Assets: []string{
				"BTC", "ETH", "BNB", "HOT", "SXP", "DOT", "ADA", "CHZ", "SOL",
				"FIL", "EGLD", "CAKE", "EOS", "PERL", "UNI", "XLM", "MANA",
				"XRP", "AVAX", "HNT", "DOGE", "BTT", "INJ", "KAVA", "LTC",
				"LINK", "EUR", "USDT", "WIN",
			},
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies that would only
// surface later at runtime.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.DSN == "" {
		if c.Database.Host == "" {
			problems = append(problems, "database: host or dsn is required")
		}
		if c.Database.Database == "" {
			problems = append(problems, "database: database name is required")
		}
	}

	if len(c.Import.Assets) == 0 {
		problems = append(problems, "import: asset priority list must not be empty")
	}

	if c.S3.Bucket != "" && c.S3.Region == "" {
		problems = append(problems, "s3: region is required when a bucket is configured")
	}

	if c.Mail.Host != "" {
		if c.Mail.From == "" {
			problems = append(problems, "mail: from address is required")
		}
		if len(c.Mail.To) == 0 {
			problems = append(problems, "mail: at least one recipient is required")
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level: unknown level %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
