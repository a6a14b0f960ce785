// Package shutdown runs the dashboard until it exits or the process is
// signaled, then tears down its collaborators in order.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Step is one named teardown action.
type Step struct {
	Name string
	Fn   func(ctx context.Context) error
}

// RunWithGracefulShutdown starts runner and blocks until it returns, ctx is
// canceled, or SIGINT/SIGTERM arrives. On a signal or cancellation the
// runner's context is canceled and it gets up to timeout to return. The
// steps then run in order, sharing one timeout; a failed step is logged and
// the rest still run.
//
// The runner's error is returned. context.Canceled from a runner that was
// asked to stop is not an error.
func RunWithGracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	timeout time.Duration,
	runner func(ctx context.Context) error,
	steps ...Step,
) error {
	// Create cancellable context for the runner
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	// Channel to receive runner completion
	runDone := make(chan error, 1)
	go func() {
		runDone <- runner(runCtx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-runDone:
		runErr = err

	case sig := <-sigChan:
		logger.Info("received signal, initiating shutdown", "signal", sig)
		runErr = stopRunner(runCancel, runDone, logger, timeout)

	case <-ctx.Done():
		logger.Info("context canceled, initiating shutdown")
		runErr = stopRunner(runCancel, runDone, logger, timeout)
	}

	stepCtx, stepCancel := context.WithTimeout(context.Background(), timeout)
	defer stepCancel()
	for _, step := range steps {
		if err := step.Fn(stepCtx); err != nil {
			logger.Error("shutdown step failed", "step", step.Name, "error", err)
			continue
		}
		logger.Debug("shutdown step done", "step", step.Name)
	}

	logger.Info("shutdown complete")
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// stopRunner cancels the runner and waits up to timeout for it to return.
func stopRunner(cancel context.CancelFunc, done <-chan error, logger *slog.Logger, timeout time.Duration) error {
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		logger.Warn("shutdown timeout exceeded")
		return nil
	}
}
