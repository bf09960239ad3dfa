// Package config defines the bot's configuration and validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by DBDISCORD_* environment
// variables.
type Config struct {
	Discord  DiscordConfig  `toml:"discord"`
	Upstream UpstreamConfig `toml:"upstream"`
	Poll     PollConfig     `toml:"poll"`
	Oracle   OracleConfig   `toml:"oracle"`
	Auto     AutoConfig     `toml:"auto_refresh"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	LogLevel string         `toml:"log_level"`
}

// DiscordConfig holds the bot credentials.
type DiscordConfig struct {
	Token string `toml:"token"`
}

// UpstreamConfig holds the game API endpoints and request bound.
type UpstreamConfig struct {
	BaseURL        string `toml:"base_url"`
	RatePath       string `toml:"rate_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PollConfig controls the lobby poll cycle and snapshot freshness.
type PollConfig struct {
	IntervalSeconds  int `toml:"interval_seconds"`
	FreshnessSeconds int `toml:"freshness_seconds"`
}

// OracleConfig controls the price refresh cycle.
type OracleConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// AutoConfig controls the summary repost cycle.
type AutoConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// PostgresConfig holds tenant persistence parameters. An empty DSN disables
// persistence; tenant state then lives in memory only.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	MaxConns      int    `toml:"max_conns"`
	MinConns      int    `toml:"min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional outbound flood guard parameters. An empty
// Addr disables the guard.
type RedisConfig struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	AlertLimit         int    `toml:"alert_limit"`
	AlertWindowSeconds int    `toml:"alert_window_seconds"`
}

// Validate checks that required fields are present and intervals sane. It is
// the process-fatal boundary: anything it rejects stops startup.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Discord.Token) == "" {
		problems = append(problems, "discord.token is required")
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		problems = append(problems, "upstream.base_url is required")
	}
	if c.Poll.IntervalSeconds <= 0 {
		problems = append(problems, "poll.interval_seconds must be positive")
	}
	if c.Poll.FreshnessSeconds <= 0 {
		problems = append(problems, "poll.freshness_seconds must be positive")
	}
	if c.Oracle.IntervalSeconds <= 0 {
		problems = append(problems, "oracle.interval_seconds must be positive")
	}
	if c.Auto.IntervalSeconds <= 0 {
		problems = append(problems, "auto_refresh.interval_seconds must be positive")
	}
	if c.Redis.Addr != "" {
		if c.Redis.AlertLimit <= 0 {
			problems = append(problems, "redis.alert_limit must be positive when redis is enabled")
		}
		if c.Redis.AlertWindowSeconds <= 0 {
			problems = append(problems, "redis.alert_window_seconds must be positive when redis is enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Upstream: UpstreamConfig{
			RatePath:       "/v1/price",
			TimeoutSeconds: 5,
		},
		Poll: PollConfig{
			IntervalSeconds:  5,
			FreshnessSeconds: 5,
		},
		Oracle: OracleConfig{
			IntervalSeconds: 60,
		},
		Auto: AutoConfig{
			IntervalSeconds: 60,
		},
		Postgres: PostgresConfig{
			MaxConns:      4,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			AlertLimit:         20,
			AlertWindowSeconds: 60,
		},
		LogLevel: "info",
	}
}
