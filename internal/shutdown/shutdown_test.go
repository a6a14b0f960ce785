package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func recordStep(name string, order *[]string, err error) Step {
	return Step{Name: name, Fn: func(context.Context) error {
		*order = append(*order, name)
		return err
	}}
}

func TestRunWithGracefulShutdown_RunnerReturns(t *testing.T) {
	var order []string

	err := RunWithGracefulShutdown(context.Background(), discard, time.Second,
		func(context.Context) error { return nil },
		recordStep("sink", &order, nil),
		recordStep("router", &order, nil),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"sink", "router"}, order)
}

func TestRunWithGracefulShutdown_RunnerErrorReturned(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := RunWithGracefulShutdown(context.Background(), discard, time.Second,
		func(context.Context) error { return boom },
		recordStep("store", &order, nil),
	)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"store"}, order, "steps run even when the runner fails")
}

func TestRunWithGracefulShutdown_StepFailureDoesNotStopOthers(t *testing.T) {
	var order []string

	err := RunWithGracefulShutdown(context.Background(), discard, time.Second,
		func(context.Context) error { return nil },
		recordStep("first", &order, errors.New("disk full")),
		recordStep("second", &order, nil),
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRunWithGracefulShutdown_ContextCancelStopsRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var order []string

	done := make(chan error, 1)
	go func() {
		done <- RunWithGracefulShutdown(ctx, discard, time.Second,
			func(runCtx context.Context) error {
				close(started)
				<-runCtx.Done()
				return runCtx.Err()
			},
			recordStep("sink", &order, nil),
		)
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithGracefulShutdown did not return after cancel")
	}
	assert.Equal(t, []string{"sink"}, order)
}

func TestRunWithGracefulShutdown_StuckRunnerTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := RunWithGracefulShutdown(ctx, discard, 50*time.Millisecond,
		func(context.Context) error {
			<-release
			return nil
		},
	)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
