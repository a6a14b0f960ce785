package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/npratt/siadash/internal/clock"
)

// Window is the time range a source is asked for: Periods samples spaced
// Interval apart, ending at End.
type Window struct {
	End      time.Time
	Interval time.Duration
	Periods  int
}

// Start returns the first sample time.
func (w Window) Start() time.Time {
	return w.End.Add(-time.Duration(w.Periods) * w.Interval)
}

// Source produces chart-ready points.
type Source interface {
	// Aggregate returns points summed across all contracts.
	Aggregate(ctx context.Context, mode GraphMode, w Window) ([]Point, error)
	// Contract returns points for one contract.
	Contract(ctx context.Context, mode GraphMode, contractID string, w Window) ([]Point, error)
	// Contracts lists the contracts that can be selected.
	Contracts(ctx context.Context) ([]ContractRef, error)
}

// Feed defaults.
const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultSampleInterval  = 24 * time.Hour
	DefaultPeriods         = 30
)

// FeedOptions configures a Feed. Zero values get the defaults above.
type FeedOptions struct {
	Refresh  time.Duration
	Interval time.Duration
	Periods  int
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Feed turns a Source into per-key bundle streams.
type Feed struct {
	source   Source
	refresh  time.Duration
	interval time.Duration
	periods  int
	clock    clock.Clock
	logger   *slog.Logger
}

// NewFeed creates a Feed over source.
func NewFeed(source Source, opts FeedOptions) *Feed {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefreshInterval
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultSampleInterval
	}
	if opts.Periods <= 0 {
		opts.Periods = DefaultPeriods
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Feed{
		source:   source,
		refresh:  opts.Refresh,
		interval: opts.Interval,
		periods:  opts.Periods,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Source returns the underlying source.
func (f *Feed) Source() Source {
	return f.source
}

// Subscribe streams bundles for key: a loading placeholder first, then one
// full bundle per refresh. Each bundle replaces the previous one. The
// channel closes when ctx is canceled.
func (f *Feed) Subscribe(ctx context.Context, key SelectionKey) <-chan SeriesBundle {
	ch := make(chan SeriesBundle, 1)
	go f.run(ctx, key, ch)
	return ch
}

func (f *Feed) run(ctx context.Context, key SelectionKey, ch chan<- SeriesBundle) {
	defer close(ch)

	send := func(b SeriesBundle) bool {
		select {
		case ch <- b:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(LoadingBundle(key)) {
		return
	}

	var last []Point
	fetch := func() SeriesBundle {
		points, err := f.Fetch(ctx, key)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Warn("metrics fetch failed", "key", key.String(), "error", err)
			}
			// Keep showing the last good data next to the error.
			return SeriesBundle{Key: key, Points: last, Config: ConfigFor(key.Mode), Err: err}
		}
		last = points
		return SeriesBundle{Key: key, Points: points, Config: ConfigFor(key.Mode)}
	}

	if !send(fetch()) {
		return
	}

	ticker := f.clock.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !send(fetch()) {
				return
			}
		}
	}
}

// Fetch loads the points for key once.
func (f *Feed) Fetch(ctx context.Context, key SelectionKey) ([]Point, error) {
	w := Window{End: f.clock.Now(), Interval: f.interval, Periods: f.periods}
	if key.IsAggregate() {
		return f.source.Aggregate(ctx, key.Mode, w)
	}
	return f.source.Contract(ctx, key.Mode, key.ContractID, w)
}

// ConfigFor returns the render config for mode.
func ConfigFor(mode GraphMode) RenderConfig {
	switch mode {
	case ModeSpending:
		return SpendingConfig()
	default:
		return RenderConfig{Title: string(mode)}
	}
}
