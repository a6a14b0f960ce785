// Package settings holds the user's application preferences: display,
// security and privacy options, their validation, the merge of persisted and
// environment-provided values, and the inactivity auto-lock countdown.
package settings

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
)

// CurrentVersion is the settings record version written to disk.
const CurrentVersion = 1

// CurrencyDisplayMode selects how currency values are shown.
type CurrencyDisplayMode string

const (
	CurrencySiacoin CurrencyDisplayMode = "siacoin"
	CurrencyFiat    CurrencyDisplayMode = "fiat"
	CurrencyBoth    CurrencyDisplayMode = "both"
)

// CurrencyDisplayModes lists the modes in selector order.
var CurrencyDisplayModes = []CurrencyDisplayMode{CurrencySiacoin, CurrencyFiat, CurrencyBoth}

// Theme is the color scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Themes lists the themes in selector order.
var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

// AutoLockTimeouts are the only inactivity thresholds the app offers.
var AutoLockTimeouts = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
}

// FiatCurrencies are the codes offered by the fiat selector. Any valid
// ISO 4217 code is accepted from config or the CLI.
var FiatCurrencies = []string{"usd", "eur", "gbp", "jpy", "cad", "aud", "cny", "rub"}

// Settings is one immutable snapshot of the user's preferences. It contains
// only value fields, so copying it copies the whole record.
type Settings struct {
	Version           int                 `json:"version" yaml:"version"`
	AutoLock          bool                `json:"autoLock" yaml:"auto_lock"`
	AutoLockTimeoutMs int64               `json:"autoLockTimeout" yaml:"auto_lock_timeout_ms"`
	CurrencyDisplay   CurrencyDisplayMode `json:"currencyDisplay" yaml:"currency_display"`
	FiatCurrency      string              `json:"currencyFiat" yaml:"currency_fiat"`
	Theme             Theme               `json:"theme" yaml:"theme"`
	SiascanEnabled    bool                `json:"siascan" yaml:"siascan"`
	GPUEnabled        bool                `json:"gpuEnabled" yaml:"gpu_enabled"`
}

// Default returns the hard-coded fallback settings.
func Default() Settings {
	return Settings{
		Version:           CurrentVersion,
		AutoLock:          true,
		AutoLockTimeoutMs: (60 * time.Minute).Milliseconds(),
		CurrencyDisplay:   CurrencySiacoin,
		FiatCurrency:      "usd",
		Theme:             ThemeSystem,
		SiascanEnabled:    true,
		GPUEnabled:        false,
	}
}

// AutoLockTimeout returns the inactivity threshold as a duration.
func (s Settings) AutoLockTimeout() time.Duration {
	return time.Duration(s.AutoLockTimeoutMs) * time.Millisecond
}

// ValidateAutoLockTimeout accepts only the values in AutoLockTimeouts.
func ValidateAutoLockTimeout(d time.Duration) error {
	for _, allowed := range AutoLockTimeouts {
		if d == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: auto-lock timeout %v is not one of 5m, 10m, 20m, 30m, 1h", ErrInvalidConfigValue, d)
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Themes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown theme %q", ErrInvalidConfigValue, s)
}

// ParseCurrencyDisplay validates a currency display mode.
func ParseCurrencyDisplay(s string) (CurrencyDisplayMode, error) {
	m := CurrencyDisplayMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range CurrencyDisplayModes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown currency display %q", ErrInvalidConfigValue, s)
}

// NormalizeFiat validates an ISO 4217 code and returns it lowercased, the
// form the settings record stores.
func NormalizeFiat(code string) (string, error) {
	code = strings.TrimSpace(code)
	if _, err := currency.ParseISO(strings.ToUpper(code)); err != nil {
		return "", fmt.Errorf("%w: unknown fiat currency %q", ErrInvalidConfigValue, code)
	}
	return strings.ToLower(code), nil
}

// FiatUnit returns the x/text currency unit for the stored fiat code.
func (s Settings) FiatUnit() (currency.Unit, error) {
	return currency.ParseISO(strings.ToUpper(s.FiatCurrency))
}

// Validate checks every enumerated field of a full record.
func (s Settings) Validate() error {
	if err := ValidateAutoLockTimeout(s.AutoLockTimeout()); err != nil {
		return err
	}
	if _, err := ParseTheme(string(s.Theme)); err != nil {
		return err
	}
	if _, err := ParseCurrencyDisplay(string(s.CurrencyDisplay)); err != nil {
		return err
	}
	if _, err := NormalizeFiat(s.FiatCurrency); err != nil {
		return err
	}
	return nil
}

// ExternalDataConfig is reported by the daemon at start and never changes
// during a session.
type ExternalDataConfig struct {
	// ExplorerConfigured is true when the daemon governs explorer access.
	ExplorerConfigured bool `json:"explorerConfigured" yaml:"explorer_configured"`
	// ExplorerEndpoint is the daemon's explorer URL; empty means none.
	ExplorerEndpoint string `json:"explorerEndpoint,omitempty" yaml:"explorer_endpoint,omitempty"`
	// GPUCapable reports whether GPU features can be enabled.
	GPUCapable bool `json:"gpuCapable" yaml:"gpu_capable"`
}

// ExplorerState is the effective third-party explorer setting.
type ExplorerState struct {
	// Managed means the daemon configures the explorer and the toggle is
	// read-only.
	Managed  bool
	Endpoint string
	Enabled  bool
}
