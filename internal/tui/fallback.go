package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/npratt/siadash/internal/events"
	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple provides line-by-line output for non-interactive environments.
// It prints the preferences, then every aggregate refresh and store event.
// Exits when ctx is canceled, the event channel closes, or on interrupt.
func (t *TUI) runSimple(ctx context.Context) error {
	// Set up interrupt handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	out := t.out
	if out == nil {
		out = os.Stdout
	}

	prefs := t.store.Get()
	printLine(out, time.Now(), describeSettings(prefs))

	var bundles <-chan metrics.SeriesBundle
	if t.feed != nil {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		bundles = t.feed.Subscribe(subCtx, metrics.NewSelection().Key())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigChan:
			// Clean exit on interrupt
			return nil
		case b, ok := <-bundles:
			if !ok {
				bundles = nil
				continue
			}
			if text := describeBundle(b); text != "" {
				printLine(out, time.Now(), text)
			}
		case event, ok := <-t.eventChan:
			if !ok {
				// Channel closed, exit cleanly
				return nil
			}
			if changed, ok := event.(*settings.ChangedEvent); ok {
				prefs = changed.Settings
			}
			if text := formatEvent(event); text != "" {
				printLine(out, event.Timestamp(), text)
			}
		}
	}
}

func printLine(w io.Writer, at time.Time, text string) {
	fmt.Fprintf(w, "%s %s\n", at.Format("15:04:05"), text)
}

// describeSettings summarizes the preferences on one line.
func describeSettings(s settings.Settings) string {
	lock := "off"
	if s.AutoLock {
		lock = timeoutLabel(s.AutoLockTimeout())
	}
	return fmt.Sprintf("settings: currency=%s fiat=%s theme=%s lock=%s siascan=%t",
		s.CurrencyDisplay, s.FiatCurrency, s.Theme, lock, s.SiascanEnabled)
}

// describeBundle summarizes an aggregate refresh. Loading bundles print
// nothing. Fiat needs a rate the fallback does not fetch, so values are
// always shown in siacoin.
func describeBundle(b metrics.SeriesBundle) string {
	switch {
	case b.IsLoading:
		return ""
	case b.Err != nil:
		return "metrics: refresh failed: " + b.Err.Error()
	case len(b.Points) == 0:
		return "metrics: no data"
	}
	last := b.Points[len(b.Points)-1]
	return fmt.Sprintf("metrics: %d points, latest funding %s spent %s",
		len(b.Points),
		formatSiacoin(last.Values[metrics.SeriesFunding]),
		formatSiacoin(last.Values[metrics.SeriesSpent]))
}

// formatEvent renders a store event for line output. Unknown events
// return "".
func formatEvent(event events.Event) string {
	switch e := event.(type) {
	case *settings.ChangedEvent:
		return describeSettings(e.Settings)
	case *settings.LockedEvent:
		return "app locked after " + timeoutLabel(time.Duration(e.After)*time.Millisecond) + " of inactivity"
	case *settings.UnlockedEvent:
		return "app unlocked"
	case *events.NoticeEvent:
		if e.Err != "" {
			return fmt.Sprintf("%s: %s (%s)", e.Level, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Level, e.Message)
	}
	return ""
}
