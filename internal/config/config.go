// Package config provides Viper-based hierarchical configuration:
// defaults, then an optional config file, then CARTEIRA_-prefixed
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Notion struct {
		Token          string `mapstructure:"token"`
		UsersDB        string `mapstructure:"users_db"`
		PeriodsDB      string `mapstructure:"periods_db"`
		TransactionsDB string `mapstructure:"transactions_db"`
	} `mapstructure:"notion"`

	Sync struct {
		CallTimeoutSeconds int `mapstructure:"call_timeout_seconds"`
		RunDeadlineSeconds int `mapstructure:"run_deadline_seconds"`
		IntervalMinutes    int `mapstructure:"interval_minutes"`
		MaxRetries         int `mapstructure:"max_retries"`
	} `mapstructure:"sync"`

	AI struct {
		Enabled bool   `mapstructure:"enabled"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"ai"`
}

// CallTimeout returns the per-remote-call timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Sync.CallTimeoutSeconds) * time.Second
}

// RunDeadline returns the whole-run reconciliation deadline.
func (c *Config) RunDeadline() time.Duration {
	return time.Duration(c.Sync.RunDeadlineSeconds) * time.Second
}

// SyncInterval returns how often the background worker triggers a run.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalMinutes) * time.Minute
}

// Load initializes configuration with hierarchical loading.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.carteira")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARTEIRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "carteira.db")
	v.SetDefault("sync.call_timeout_seconds", 10)
	v.SetDefault("sync.run_deadline_seconds", 120)
	v.SetDefault("sync.interval_minutes", 15)
	v.SetDefault("sync.max_retries", 3)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
}
