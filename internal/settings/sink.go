package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/siadash/internal/clock"
	"github.com/npratt/siadash/internal/events"
)

// SinkBufferSize is the recommended subscription buffer for the sink.
const SinkBufferSize = 256

// DefaultMinSaveDelay is the minimum time between writes.
const DefaultMinSaveDelay = time.Second

// Saver writes the user-set keys.
type Saver interface {
	Save(Record) error
}

// Sink persists settings behind the store: it listens for ChangedEvents and
// writes the latest record, debounced. A change that arrives inside the
// debounce window is written when the window closes. Failures are logged and
// retried on the next change or at shutdown; they never reach the store.
type Sink struct {
	saver    Saver
	clock    clock.Clock
	logger   *slog.Logger
	minDelay time.Duration

	mu       sync.Mutex
	pending  *Record
	lastSave time.Time
	trailing *clock.Timer
	done     chan struct{}
}

// NewSink creates a Sink writing through saver.
func NewSink(saver Saver, c clock.Clock, logger *slog.Logger) *Sink {
	if c == nil {
		c = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		saver:    saver,
		clock:    c,
		logger:   logger,
		minDelay: DefaultMinSaveDelay,
		done:     make(chan struct{}),
	}
}

// SetMinDelay sets the debounce window (0 writes on every change).
func (s *Sink) SetMinDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minDelay = d
}

// Start begins consuming events until ctx is canceled or the channel closes.
func (s *Sink) Start(ctx context.Context, in <-chan events.Event) {
	go s.run(ctx, in)
}

func (s *Sink) run(ctx context.Context, in <-chan events.Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case event, ok := <-in:
			if !ok {
				s.flush()
				return
			}
			s.handleEvent(event)
		}
	}
}

func (s *Sink) handleEvent(event events.Event) {
	changed, ok := event.(*ChangedEvent)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := changed.Record
	s.pending = &rec

	wait := s.minDelay - s.clock.Now().Sub(s.lastSave)
	if wait <= 0 {
		s.saveLocked()
		return
	}
	if s.trailing == nil {
		s.trailing = s.clock.AfterFunc(wait, s.flush)
	}
}

// saveLocked writes the pending record and cancels any scheduled write.
func (s *Sink) saveLocked() {
	if s.trailing != nil {
		s.trailing.Stop()
		s.trailing = nil
	}
	if s.pending == nil {
		return
	}
	if err := s.saver.Save(*s.pending); err != nil {
		s.logger.Warn("settings save failed", "error", err)
		return
	}
	s.pending = nil
	s.lastSave = s.clock.Now()
}

func (s *Sink) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

// Stop waits for the run loop to exit after its final flush.
func (s *Sink) Stop() {
	<-s.done
}

// Dirty reports whether a record is waiting to be written.
func (s *Sink) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
