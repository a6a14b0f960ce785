package events

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the default channel buffer size for subscribers.
const DefaultBufferSize = 100

// subscriber is one outbound channel plus the event types it wants.
// An empty types list receives everything.
type subscriber struct {
	ch    chan Event
	types []EventType
}

func (s subscriber) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Router fans events out from the preference store to the TUI, the
// persistence sink and the activity log. Delivery never blocks the
// producer: a subscriber whose buffer is full misses the event and the
// drop is counted.
type Router struct {
	mu          sync.RWMutex
	subscribers []subscriber
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewRouter creates a router. If bufferSize is 0 or negative,
// DefaultBufferSize is used.
func NewRouter(bufferSize int) *Router {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Router{bufferSize: bufferSize}
}

// Emit publishes an event to every subscriber that wants its type. Safe to
// call concurrently and after Close (no-op).
func (r *Router) Emit(event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, sub := range r.subscribers {
		if !sub.wants(event.Type()) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			r.dropped.Add(1)
			slog.Warn("event dropped: subscriber channel full",
				"event_type", event.Type(),
				"source", event.Source(),
			)
		}
	}
}

// Subscribe returns a channel of every event with the router's buffer size.
func (r *Router) Subscribe() <-chan Event {
	return r.SubscribeTo(r.bufferSize)
}

// SubscribeTo returns a channel with the given buffer size that receives
// only the listed event types, or all of them when none are listed. The
// channel is closed by Unsubscribe or Close.
func (r *Router) SubscribeTo(size int, types ...EventType) <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, size)
	if r.closed {
		close(ch)
		return ch
	}
	r.subscribers = append(r.subscribers, subscriber{ch: ch, types: types})
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Unknown
// channels are ignored.
func (r *Router) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.subscribers, func(s subscriber) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(r.subscribers[i].ch)
	r.subscribers = slices.Delete(r.subscribers, i, i+1)
}

// Dropped reports how many deliveries were skipped because a subscriber
// was full.
func (r *Router) Dropped() int64 {
	return r.dropped.Load()
}

// Close closes every subscriber channel. Safe to call more than once.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for _, sub := range r.subscribers {
		close(sub.ch)
	}
	r.subscribers = nil
}
