// Package config provides configuration types and defaults for siadash.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for siadash.
type Config struct {
	Renterd     RenterdConfig     `yaml:"renterd" mapstructure:"renterd"`
	Explorer    ExplorerConfig    `yaml:"explorer" mapstructure:"explorer"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	GPU         GPUConfig         `yaml:"gpu" mapstructure:"gpu"`
	Defaults    DefaultsConfig    `yaml:"defaults" mapstructure:"defaults"`
}

// RenterdConfig holds the connection to the renterd node.
type RenterdConfig struct {
	Address  string        `yaml:"address" mapstructure:"address"`
	Password string        `yaml:"password" mapstructure:"password"` // Also unlocks the lock screen
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ExplorerConfig holds the third-party explorer used when renterd does not
// configure one.
type ExplorerConfig struct {
	SiascanURL string        `yaml:"siascan_url" mapstructure:"siascan_url"`
	RateTTL    time.Duration `yaml:"rate_ttl" mapstructure:"rate_ttl"` // How long an exchange rate is reused
}

// MetricsConfig holds settings for the spending chart.
type MetricsConfig struct {
	Refresh  time.Duration `yaml:"refresh" mapstructure:"refresh"`   // Refetch interval (min 1s)
	Interval time.Duration `yaml:"interval" mapstructure:"interval"` // Spacing between samples
	Periods  int           `yaml:"periods" mapstructure:"periods"`   // Samples per chart
}

// PathsConfig holds file paths for settings and logs. Empty values resolve
// under the global config directory.
type PathsConfig struct {
	Settings string `yaml:"settings" mapstructure:"settings"`
	Log      string `yaml:"log" mapstructure:"log"`
	Events   string `yaml:"events" mapstructure:"events"` // Activity log (JSON lines); "-" disables it
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// GPUConfig reports the host's GPU capability.
type GPUConfig struct {
	Capable bool `yaml:"capable" mapstructure:"capable"`
}

// DefaultsConfig holds environment-provided preference defaults. They apply
// under whatever the user has saved. Unset fields fall through to the
// built-in defaults.
type DefaultsConfig struct {
	AutoLock        *bool         `yaml:"auto_lock,omitempty" mapstructure:"auto_lock"`
	AutoLockTimeout time.Duration `yaml:"auto_lock_timeout,omitempty" mapstructure:"auto_lock_timeout"`
	CurrencyDisplay string        `yaml:"currency_display,omitempty" mapstructure:"currency_display"`
	FiatCurrency    string        `yaml:"fiat_currency,omitempty" mapstructure:"fiat_currency"`
	Theme           string        `yaml:"theme,omitempty" mapstructure:"theme"`
	Siascan         *bool         `yaml:"siascan,omitempty" mapstructure:"siascan"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Renterd: RenterdConfig{
			Address: "http://localhost:9980/api",
			Timeout: 30 * time.Second,
		},
		Explorer: ExplorerConfig{
			SiascanURL: "https://api.siascan.com",
			RateTTL:    5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Refresh:  30 * time.Second,
			Interval: 24 * time.Hour,
			Periods:  30,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate checks values that would make the dashboard unusable.
func (c *Config) Validate() error {
	if c.Renterd.Address == "" {
		return fmt.Errorf("renterd.address is required")
	}
	if c.Metrics.Refresh < time.Second {
		return fmt.Errorf("metrics.refresh must be at least 1s, got %v", c.Metrics.Refresh)
	}
	if c.Metrics.Interval <= 0 {
		return fmt.Errorf("metrics.interval must be positive, got %v", c.Metrics.Interval)
	}
	if c.Metrics.Periods <= 0 {
		return fmt.Errorf("metrics.periods must be positive, got %d", c.Metrics.Periods)
	}
	return nil
}
