package settings

import (
	"fmt"
	"time"
)

// RequestUpdate is a partial update of the security and theme settings.
// Nil fields are left unchanged.
type RequestUpdate struct {
	AutoLock        *bool
	AutoLockTimeout *time.Duration
	Theme           *Theme
}

func (u RequestUpdate) validate() error {
	if u.AutoLockTimeout != nil {
		if err := ValidateAutoLockTimeout(*u.AutoLockTimeout); err != nil {
			return err
		}
	}
	if u.Theme != nil {
		if _, err := ParseTheme(string(*u.Theme)); err != nil {
			return err
		}
	}
	return nil
}

// record marks the present keys as user-set in r.
func (u RequestUpdate) record(r *Record) {
	if u.AutoLock != nil {
		r.AutoLock = pointerTo(*u.AutoLock)
	}
	if u.AutoLockTimeout != nil {
		r.AutoLockTimeout = pointerTo(u.AutoLockTimeout.Milliseconds())
	}
	if u.Theme != nil {
		r.Theme = pointerTo(string(*u.Theme))
	}
}

// ExternalDataUpdate is a partial update of the third-party API toggles.
type ExternalDataUpdate struct {
	Siascan *bool
}

// DisplayUpdate is a partial update of the currency display settings.
type DisplayUpdate struct {
	CurrencyDisplay *CurrencyDisplayMode
	FiatCurrency    *string
}

// normalize validates the update and returns it with the fiat code in its
// stored form.
func (u DisplayUpdate) normalize() (DisplayUpdate, error) {
	if u.CurrencyDisplay != nil {
		if _, err := ParseCurrencyDisplay(string(*u.CurrencyDisplay)); err != nil {
			return u, err
		}
	}
	if u.FiatCurrency != nil {
		code, err := NormalizeFiat(*u.FiatCurrency)
		if err != nil {
			return u, err
		}
		u.FiatCurrency = &code
	}
	return u, nil
}

func (u DisplayUpdate) record(r *Record) {
	if u.CurrencyDisplay != nil {
		r.CurrencyDisplay = pointerTo(string(*u.CurrencyDisplay))
	}
	if u.FiatCurrency != nil {
		r.CurrencyFiat = pointerTo(*u.FiatCurrency)
	}
}

// Overrides are environment-provided defaults (config file, SIADASH_* env).
// They sit between the persisted record and the hard-coded defaults.
// Zero values mean "not provided".
type Overrides struct {
	AutoLock        *bool
	AutoLockTimeout time.Duration
	CurrencyDisplay string
	FiatCurrency    string
	Theme           string
	Siascan         *bool
}

// apply layers the overrides over base. An invalid override is skipped and
// reported; the remaining overrides still apply.
func (o Overrides) apply(base Settings) (Settings, []error) {
	var errs []error
	if o.AutoLock != nil {
		base.AutoLock = *o.AutoLock
	}
	if o.AutoLockTimeout != 0 {
		if err := ValidateAutoLockTimeout(o.AutoLockTimeout); err != nil {
			errs = append(errs, fmt.Errorf("default auto-lock timeout: %w", err))
		} else {
			base.AutoLockTimeoutMs = o.AutoLockTimeout.Milliseconds()
		}
	}
	if o.CurrencyDisplay != "" {
		if m, err := ParseCurrencyDisplay(o.CurrencyDisplay); err != nil {
			errs = append(errs, fmt.Errorf("default currency display: %w", err))
		} else {
			base.CurrencyDisplay = m
		}
	}
	if o.FiatCurrency != "" {
		if code, err := NormalizeFiat(o.FiatCurrency); err != nil {
			errs = append(errs, fmt.Errorf("default fiat currency: %w", err))
		} else {
			base.FiatCurrency = code
		}
	}
	if o.Theme != "" {
		if t, err := ParseTheme(o.Theme); err != nil {
			errs = append(errs, fmt.Errorf("default theme: %w", err))
		} else {
			base.Theme = t
		}
	}
	if o.Siascan != nil {
		base.SiascanEnabled = *o.Siascan
	}
	return base, errs
}

// Record is the on-disk shape of the settings. It holds only the keys the
// user has set; everything else comes from the overrides and the hard-coded
// defaults each time the record is loaded.
type Record struct {
	Version         int     `json:"version"`
	AutoLock        *bool   `json:"autoLock,omitempty"`
	AutoLockTimeout *int64  `json:"autoLockTimeout,omitempty"`
	CurrencyDisplay *string `json:"currencyDisplay,omitempty"`
	CurrencyFiat    *string `json:"currencyFiat,omitempty"`
	Theme           *string `json:"theme,omitempty"`
	Siascan         *bool   `json:"siascan,omitempty"`
	GPUEnabled      *bool   `json:"gpuEnabled,omitempty"`
}

// apply layers the record over base. Any out-of-range field rejects the
// whole record.
func (r Record) apply(base Settings) (Settings, error) {
	s := base
	if r.AutoLock != nil {
		s.AutoLock = *r.AutoLock
	}
	if r.AutoLockTimeout != nil {
		d := time.Duration(*r.AutoLockTimeout) * time.Millisecond
		if err := ValidateAutoLockTimeout(d); err != nil {
			return base, err
		}
		s.AutoLockTimeoutMs = *r.AutoLockTimeout
	}
	if r.CurrencyDisplay != nil {
		m, err := ParseCurrencyDisplay(*r.CurrencyDisplay)
		if err != nil {
			return base, err
		}
		s.CurrencyDisplay = m
	}
	if r.CurrencyFiat != nil {
		code, err := NormalizeFiat(*r.CurrencyFiat)
		if err != nil {
			return base, err
		}
		s.FiatCurrency = code
	}
	if r.Theme != nil {
		t, err := ParseTheme(*r.Theme)
		if err != nil {
			return base, err
		}
		s.Theme = t
	}
	if r.Siascan != nil {
		s.SiascanEnabled = *r.Siascan
	}
	if r.GPUEnabled != nil {
		s.GPUEnabled = *r.GPUEnabled
	}
	return s, nil
}

// equal compares the set keys and their values. Version is ignored.
func (r Record) equal(o Record) bool {
	return samePtr(r.AutoLock, o.AutoLock) &&
		samePtr(r.AutoLockTimeout, o.AutoLockTimeout) &&
		samePtr(r.CurrencyDisplay, o.CurrencyDisplay) &&
		samePtr(r.CurrencyFiat, o.CurrencyFiat) &&
		samePtr(r.Theme, o.Theme) &&
		samePtr(r.Siascan, o.Siascan) &&
		samePtr(r.GPUEnabled, o.GPUEnabled)
}

func samePtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func pointerTo[T any](v T) *T { return &v }

// resolve splits the merge chain persisted → overrides → hard-coded defaults
// into its two layers: base (overrides over defaults) and the user record.
// It never fails: every problem becomes a warning and the chain continues
// without the faulty layer.
func resolve(rec *Record, loadErr error, env Overrides) (Settings, Record, []error) {
	base, warnings := env.apply(Default())
	if loadErr != nil {
		warnings = append(warnings, loadErr)
	}
	if rec == nil {
		return base, Record{}, warnings
	}
	if _, err := rec.apply(base); err != nil {
		warnings = append(warnings, fmt.Errorf("%w: discarding stored settings: %w", ErrPersistenceUnavailable, err))
		return base, Record{}, warnings
	}
	return base, *rec, warnings
}
