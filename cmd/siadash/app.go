package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npratt/siadash/internal/config"
	"github.com/npratt/siadash/internal/events"
	"github.com/npratt/siadash/internal/explorer"
	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/renterd"
	"github.com/npratt/siadash/internal/settings"
	"github.com/npratt/siadash/internal/shutdown"
	"github.com/npratt/siadash/internal/tui"
)

const (
	// probeTimeout bounds the startup request for the daemon's explorer
	// configuration.
	probeTimeout = 10 * time.Second
	// shutdownTimeout bounds the dashboard exit and the teardown steps.
	shutdownTimeout = 10 * time.Second
	// tuiBufferSize is the TUI's event buffer. Notices emitted while the
	// store loads arrive before the program starts reading.
	tuiBufferSize = 256
)

// runDashboard wires the store, persistence, chart feed and explorer into
// the dashboard and blocks until it exits.
func runDashboard(ctx context.Context, cfg *config.Config, logger *slog.Logger, logLevel slog.Leveler) error {
	// TUI mode: redirect logging to a file so it does not corrupt the display
	if term.IsTerminal(int(os.Stdout.Fd())) {
		logResult, err := SetupTUILogger(cfg.Paths.Log, cfg.Renterd.Address, logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = logResult.Close() }()
		logger = logResult.Logger
	}
	slog.SetDefault(logger)

	logger.Info("siadash starting",
		"version", version,
		"renterd", cfg.Renterd.Address,
		"settings_file", cfg.Paths.Settings,
	)

	client, err := renterd.NewClient(renterd.ClientConfig{
		Address:  cfg.Renterd.Address,
		Password: cfg.Renterd.Password,
		Timeout:  cfg.Renterd.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create renterd client: %w", err)
	}

	router := events.NewRouter(events.DefaultBufferSize)

	// Subscribe before the store exists so its load notices are kept.
	sinkEvents := router.SubscribeTo(settings.SinkBufferSize, events.EventSettingsChanged)
	tuiEvents := router.SubscribeTo(tuiBufferSize)

	var activity *events.LogSink
	if cfg.Paths.Events != "-" {
		activity = events.NewLogSink(newActivityWriter(cfg), logger)
		activity.Start(context.Background(), router.Subscribe())
	}
	stopActivity := func(context.Context) error {
		if activity == nil {
			return nil
		}
		return activity.Stop()
	}

	external, probeErr := probeExternalData(ctx, client)
	external.GPUCapable = cfg.GPU.Capable

	file := settings.NewFileStore(cfg.Paths.Settings)
	store := settings.New(settings.Options{
		Loader:     file,
		Overrides:  overridesFrom(cfg.Defaults),
		External:   external,
		SiascanURL: cfg.Explorer.SiascanURL,
		Emitter:    router,
		Logger:     logger,
	})

	if probeErr != nil {
		logger.Warn("renterd unreachable", "address", cfg.Renterd.Address, "error", probeErr)
		router.Emit(events.NewNotice(events.SourceApp, events.NoticeWarning,
			"Could not reach renterd; charts will retry.", probeErr))
	}

	// The sink outlives ctx; closing the router ends it after a final flush.
	sink := settings.NewSink(file, nil, logger)
	sink.Start(context.Background(), sinkEvents)

	store.Start()

	feed := metrics.NewFeed(renterd.NewSource(client), metrics.FeedOptions{
		Refresh:  cfg.Metrics.Refresh,
		Interval: cfg.Metrics.Interval,
		Periods:  cfg.Metrics.Periods,
		Logger:   logger,
	})

	rates, err := explorer.NewClient(explorer.Config{
		State:   store.Explorer,
		RateTTL: cfg.Explorer.RateTTL,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		router.Close()
		sink.Stop()
		_ = stopActivity(ctx)
		return fmt.Errorf("create explorer client: %w", err)
	}

	app := tui.New(store, feed,
		tui.WithEvents(tuiEvents),
		tui.WithContracts(feed.Source()),
		tui.WithRates(rates),
		tui.WithPassword(cfg.Renterd.Password),
	)

	return shutdown.RunWithGracefulShutdown(ctx, logger, shutdownTimeout,
		app.Run,
		shutdown.Step{Name: "lock timer", Fn: func(context.Context) error {
			store.Close()
			return nil
		}},
		shutdown.Step{Name: "event router", Fn: func(context.Context) error {
			router.Close()
			return nil
		}},
		shutdown.Step{Name: "settings sink", Fn: func(ctx context.Context) error {
			return waitFor(ctx, sink.Stop)
		}},
		shutdown.Step{Name: "activity log", Fn: stopActivity},
	)
}

// newActivityWriter opens the rotating activity log.
func newActivityWriter(cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Paths.Events,
		MaxSize:    cfg.LogRotation.MaxSizeMB,
		MaxBackups: cfg.LogRotation.MaxBackups,
		MaxAge:     cfg.LogRotation.MaxAgeDays,
		Compress:   cfg.LogRotation.Compress,
	}
}

// probeExternalData asks renterd how it configures the explorer. On
// failure the store runs as if the daemon configured nothing.
func probeExternalData(ctx context.Context, client *renterd.Client) (settings.ExternalDataConfig, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return client.ExternalData(probeCtx)
}

// waitFor runs fn and returns when it does or when ctx is done.
func waitFor(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out: %w", ctx.Err())
	}
}
