package settings

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/siadash/internal/clock"
	"github.com/npratt/siadash/internal/events"
)

// DefaultSiascanURL is the public explorer used when the daemon does not
// configure one.
const DefaultSiascanURL = "https://api.siascan.com"

// Loader reads the persisted record. It returns (nil, nil) when nothing has
// been stored yet.
type Loader interface {
	Load() (*Record, error)
}

// Options configures a Store. Zero values get working defaults.
type Options struct {
	Loader     Loader
	Overrides  Overrides
	External   ExternalDataConfig
	SiascanURL string
	Clock      clock.Clock
	Emitter    events.Emitter
	Logger     *slog.Logger
}

// Store owns the settings record for the lifetime of the process. All
// mutations go through it; readers get value snapshots, so no reader ever
// observes a partially merged record.
//
// current is always user applied over base. Only user is persisted, so a
// configured default keeps applying to every key the user never set.
type Store struct {
	mu       sync.RWMutex
	base     Settings
	user     Record
	current  Settings
	locked   bool
	warnings []error

	external   ExternalDataConfig
	siascanURL string
	timer      *lockTimer
	clock      clock.Clock
	emitter    events.Emitter
	logger     *slog.Logger
}

// New builds a Store from the merge chain persisted → overrides →
// hard-coded defaults. It never fails; load problems are logged, emitted as
// notices and kept in Warnings.
func New(opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Emitter == nil {
		opts.Emitter = events.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SiascanURL == "" {
		opts.SiascanURL = DefaultSiascanURL
	}

	var rec *Record
	var loadErr error
	if opts.Loader != nil {
		rec, loadErr = opts.Loader.Load()
	}
	base, user, warnings := resolve(rec, loadErr, opts.Overrides)
	// resolve already validated user against base.
	current, _ := user.apply(base)

	s := &Store{
		base:       base,
		user:       user,
		current:    current,
		warnings:   warnings,
		external:   opts.External,
		siascanURL: opts.SiascanURL,
		clock:      opts.Clock,
		emitter:    opts.Emitter,
		logger:     opts.Logger,
	}
	s.timer = newLockTimer(opts.Clock, s.lock)

	for _, w := range warnings {
		s.logger.Warn("settings load problem, using defaults", "error", w)
		msg := "Using default settings."
		if errors.Is(w, ErrInvalidConfigValue) && !errors.Is(w, ErrPersistenceUnavailable) {
			msg = "Ignored an invalid default setting."
		}
		s.emitter.Emit(events.NewNotice(events.SourceSettings, events.NoticeWarning, msg, w))
	}
	return s
}

// Start arms the auto-lock countdown if auto-lock is on.
func (s *Store) Start() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.AutoLock && !s.locked {
		s.timer.arm(s.current.AutoLockTimeout())
	}
}

// Close cancels the countdown.
func (s *Store) Close() {
	s.timer.disarm()
}

// Get returns the current snapshot.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Persisted returns the keys the user has set, the form written to disk.
func (s *Store) Persisted() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Warnings returns the problems found while loading.
func (s *Store) Warnings() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]error(nil), s.warnings...)
}

// External returns the daemon-reported configuration.
func (s *Store) External() ExternalDataConfig {
	return s.external
}

// Explorer returns the effective explorer setting. When the daemon manages
// the explorer, the stored Siascan toggle is kept but not consulted.
func (s *Store) Explorer() ExplorerState {
	if s.external.ExplorerConfigured {
		return ExplorerState{
			Managed:  true,
			Endpoint: s.external.ExplorerEndpoint,
			Enabled:  s.external.ExplorerEndpoint != "",
		}
	}
	return ExplorerState{
		Endpoint: s.siascanURL,
		Enabled:  s.Get().SiascanEnabled,
	}
}

// GPUActive reports whether GPU features are both enabled and possible.
func (s *Store) GPUActive() bool {
	return s.external.GPUCapable && s.Get().GPUEnabled
}

// SetRequestSettings merges the present keys. An invalid value rejects the
// whole update with ErrInvalidConfigValue. Changing auto-lock or its timeout
// restarts (or cancels) the countdown from zero; unchanged values leave it
// running.
func (s *Store) SetRequestSettings(u RequestUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}
	return s.commit(u.record)
}

// SetExternalDataSettings merges the third-party API toggles. It is a no-op
// returning ErrExplorerManaged while the daemon configures the explorer.
func (s *Store) SetExternalDataSettings(u ExternalDataUpdate) error {
	if s.external.ExplorerConfigured {
		return ErrExplorerManaged
	}
	return s.commit(func(r *Record) {
		if u.Siascan != nil {
			r.Siascan = pointerTo(*u.Siascan)
		}
	})
}

// SetDisplaySettings merges the currency display settings.
func (s *Store) SetDisplaySettings(u DisplayUpdate) error {
	u, err := u.normalize()
	if err != nil {
		return err
	}
	return s.commit(u.record)
}

// SetGPUEnabled toggles GPU features. Enabling requires a capable device;
// disabling is always allowed.
func (s *Store) SetGPUEnabled(enabled bool) error {
	if enabled && !s.external.GPUCapable {
		return ErrGPUUnsupported
	}
	return s.commit(func(r *Record) { r.GPUEnabled = pointerTo(enabled) })
}

// Reset forgets every user-set key, leaving the configured defaults over
// the hard-coded ones.
func (s *Store) Reset() {
	_ = s.commit(func(r *Record) { *r = Record{} })
}

// ResetAutoLockTimer records user activity and restarts the countdown. It
// does nothing while auto-lock is off or the app is locked; Unlock re-arms.
func (s *Store) ResetAutoLockTimer() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.current.AutoLock || s.locked {
		return
	}
	s.timer.arm(s.current.AutoLockTimeout())
}

// Locked reports whether the inactivity lock has engaged.
func (s *Store) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// Unlock clears the lock and restarts the countdown.
func (s *Store) Unlock() {
	s.mu.Lock()
	if !s.locked {
		s.mu.Unlock()
		return
	}
	s.locked = false
	if s.current.AutoLock {
		s.timer.arm(s.current.AutoLockTimeout())
	}
	s.mu.Unlock()

	s.logger.Info("app unlocked")
	s.emitter.Emit(&UnlockedEvent{
		BaseEvent: events.NewEventAt(events.EventAppUnlocked, events.SourceSettings, s.clock.Now()),
	})
}

// lock is the countdown's expiry handler.
func (s *Store) lock(after time.Duration) {
	s.mu.Lock()
	if s.locked || !s.current.AutoLock {
		s.mu.Unlock()
		return
	}
	s.locked = true
	s.mu.Unlock()

	s.logger.Info("app locked after inactivity", "timeout", after)
	s.emitter.Emit(&LockedEvent{
		BaseEvent: events.NewEventAt(events.EventAppLocked, events.SourceSettings, s.clock.Now()),
		After:     after.Milliseconds(),
	})
}

// commit applies mutate to a copy of the user record, re-derives the
// effective settings and swaps both in. The swap and any countdown change
// happen under the write lock.
func (s *Store) commit(mutate func(r *Record)) error {
	s.mu.Lock()
	prev, prevUser := s.current, s.user
	user := prevUser
	mutate(&user)
	next, err := user.apply(s.base)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == prev && user.equal(prevUser) {
		s.mu.Unlock()
		return nil
	}
	s.current, s.user = next, user

	if prev.AutoLock != next.AutoLock || prev.AutoLockTimeoutMs != next.AutoLockTimeoutMs {
		if next.AutoLock && !s.locked {
			s.timer.arm(next.AutoLockTimeout())
		} else {
			s.timer.disarm()
		}
	}
	s.mu.Unlock()

	s.logger.Debug("settings updated", "settings", next)
	s.emitter.Emit(&ChangedEvent{
		BaseEvent: events.NewEventAt(events.EventSettingsChanged, events.SourceSettings, s.clock.Now()),
		Settings:  next,
		Record:    user,
	})
	return nil
}
