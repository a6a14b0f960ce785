package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// LogSink appends every event it receives to w as one JSON line. It keeps
// an activity trail of preference changes, locks and notices that outlives
// the session.
type LogSink struct {
	w      io.WriteCloser
	logger *slog.Logger

	mu      sync.Mutex
	encoder *json.Encoder
	done    chan struct{}
}

// NewLogSink creates a LogSink writing to w. The sink owns w and closes it
// on Stop.
func NewLogSink(w io.WriteCloser, logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{
		w:       w,
		logger:  logger,
		encoder: json.NewEncoder(w),
		done:    make(chan struct{}),
	}
}

// Start begins processing events. It runs until ctx is canceled or the
// channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) {
	go s.run(ctx, events)
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(event); err != nil {
		// A lost line is not worth stopping the dashboard for.
		s.logger.Warn("activity log write failed", "type", event.Type(), "error", err)
	}
}

// Stop waits for the run loop to exit and closes the writer.
func (s *LogSink) Stop() error {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return nil
	}
	s.encoder = nil
	return s.w.Close()
}
