package settings

import "errors"

var (
	// ErrInvalidConfigValue marks a setting outside its allowed values.
	ErrInvalidConfigValue = errors.New("invalid config value")

	// ErrPersistenceUnavailable marks a settings file that could not be
	// read or written. The store keeps working on defaults.
	ErrPersistenceUnavailable = errors.New("settings persistence unavailable")

	// ErrExplorerManaged is returned when the user tries to toggle the
	// explorer while the daemon governs it.
	ErrExplorerManaged = errors.New("explorer is configured by the daemon")

	// ErrGPUUnsupported is returned when enabling GPU features on a device
	// that cannot use them.
	ErrGPUUnsupported = errors.New("device does not support GPU rendering")
)
