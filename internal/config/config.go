// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Data    DataConfig    `mapstructure:"data"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication settings.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TokenHash string `mapstructure:"token_hash"`
}

// DataConfig sets where the flat-file collections live.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// ArchiveConfig governs the wayback capture client and job poller.
type ArchiveConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	PollDelaySeconds int    `mapstructure:"poll_delay_seconds"`
	PollAttempts     int    `mapstructure:"poll_attempts"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	WaitForResult    bool   `mapstructure:"wait_for_result"`
}

// SweepConfig gates the background archiver.
type SweepConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKMARKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8888)
	v.SetDefault("data.dir", "data")
	v.SetDefault("archive.base_url", "https://web.archive.org")
	v.SetDefault("archive.poll_delay_seconds", 10)
	v.SetDefault("archive.poll_attempts", 20)
	v.SetDefault("archive.timeout_seconds", 30)
	v.SetDefault("archive.wait_for_result", true)
	v.SetDefault("sweep.enabled", false)
	v.SetDefault("sweep.interval_seconds", 3600)
	v.SetDefault("logging.development", true)

	// Viper only maps BOOKMARKS_* env vars onto keys it already knows, so
	// keys without a meaningful default still need to be registered.
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_hash", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must be set")
	}
	if c.Archive.BaseURL == "" {
		return fmt.Errorf("archive.base_url must be set")
	}
	if c.Archive.PollDelaySeconds <= 0 {
		return fmt.Errorf("archive.poll_delay_seconds must be > 0")
	}
	if c.Archive.PollAttempts <= 0 {
		return fmt.Errorf("archive.poll_attempts must be > 0")
	}
	if c.Sweep.Enabled && c.Sweep.IntervalSeconds <= 0 {
		return fmt.Errorf("sweep.interval_seconds must be > 0 when sweep is enabled")
	}
	if c.Auth.Enabled && c.Auth.TokenHash == "" {
		return fmt.Errorf("auth.token_hash must be set when auth is enabled")
	}
	return nil
}

// PollDelay returns the inter-poll delay as a duration.
func (c ArchiveConfig) PollDelay() time.Duration {
	return time.Duration(c.PollDelaySeconds) * time.Second
}

// Timeout returns the per-request HTTP timeout as a duration.
func (c ArchiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the sweep tick interval as a duration.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
