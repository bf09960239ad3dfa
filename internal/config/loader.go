package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DBDISCORD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DBDISCORD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Discord.Token, "DBDISCORD_DISCORD_TOKEN")

	setStr(&cfg.Upstream.BaseURL, "DBDISCORD_UPSTREAM_BASE_URL")
	setStr(&cfg.Upstream.RatePath, "DBDISCORD_UPSTREAM_RATE_PATH")
	setInt(&cfg.Upstream.TimeoutSeconds, "DBDISCORD_UPSTREAM_TIMEOUT_SECONDS")

	setInt(&cfg.Poll.IntervalSeconds, "DBDISCORD_POLL_INTERVAL_SECONDS")
	setInt(&cfg.Poll.FreshnessSeconds, "DBDISCORD_POLL_FRESHNESS_SECONDS")

	setInt(&cfg.Oracle.IntervalSeconds, "DBDISCORD_ORACLE_INTERVAL_SECONDS")
	setInt(&cfg.Auto.IntervalSeconds, "DBDISCORD_AUTO_REFRESH_INTERVAL_SECONDS")

	setStr(&cfg.Postgres.DSN, "DBDISCORD_POSTGRES_DSN")
	setInt(&cfg.Postgres.MaxConns, "DBDISCORD_POSTGRES_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "DBDISCORD_POSTGRES_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DBDISCORD_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "DBDISCORD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DBDISCORD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DBDISCORD_REDIS_DB")
	setInt(&cfg.Redis.AlertLimit, "DBDISCORD_REDIS_ALERT_LIMIT")
	setInt(&cfg.Redis.AlertWindowSeconds, "DBDISCORD_REDIS_ALERT_WINDOW_SECONDS")

	setStr(&cfg.LogLevel, "DBDISCORD_LOG_LEVEL")
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
