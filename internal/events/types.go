// Package events defines the event taxonomy and the channel-based router that
// carries state changes from the preference store to the TUI and the
// persistence sink.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Preference events
	EventSettingsChanged EventType = "settings.changed"

	// Security events
	EventAppLocked   EventType = "app.locked"
	EventAppUnlocked EventType = "app.unlocked"

	// Non-blocking notices shown to the user
	EventNotice EventType = "notice"
)

// Source constants identify the origin of events.
const (
	SourceSettings = "settings"
	SourceMetrics  = "metrics"
	SourceApp      = "siadash"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// NewEvent creates a BaseEvent stamped with the current time.
func NewEvent(eventType EventType, source string) BaseEvent {
	return NewEventAt(eventType, source, time.Now())
}

// NewEventAt creates a BaseEvent stamped with at. Components that run on an
// injected clock use this so event times follow the clock.
func NewEventAt(eventType EventType, source string, at time.Time) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      at,
		Src:       source,
	}
}

// NoticeLevel grades a notice for display.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// NoticeEvent is a non-blocking message for the user, e.g. "settings file
// unreadable, using defaults".
type NoticeEvent struct {
	BaseEvent
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Err     string      `json:"error,omitempty"`
}

// NewNotice builds a NoticeEvent. err may be nil.
func NewNotice(source string, level NoticeLevel, message string, err error) *NoticeEvent {
	n := &NoticeEvent{
		BaseEvent: NewEvent(EventNotice, source),
		Level:     level,
		Message:   message,
	}
	if err != nil {
		n.Err = err.Error()
	}
	return n
}

// Emitter publishes events. *Router implements it; components depend on the
// interface so tests can record what they emit.
type Emitter interface {
	Emit(event Event)
}

// Discard is an Emitter that drops everything.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
