package settings

import "github.com/npratt/siadash/internal/events"

// ChangedEvent carries the full snapshot after a successful update, and the
// user-set keys the persistence sink writes.
type ChangedEvent struct {
	events.BaseEvent
	Settings Settings `json:"settings"`
	Record   Record   `json:"-"`
}

// LockedEvent is emitted once when the inactivity countdown expires.
type LockedEvent struct {
	events.BaseEvent
	After int64 `json:"after_ms"`
}

// UnlockedEvent is emitted when the lock screen is dismissed.
type UnlockedEvent struct {
	events.BaseEvent
}
