// Package tui provides the siadash terminal dashboard using bubbletea: the
// contract spending chart, the contract list, the app preferences dialog
// and the inactivity lock screen.
package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/siadash/internal/events"
	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

// SettingsStore is the part of *settings.Store the dashboard uses.
type SettingsStore interface {
	Get() settings.Settings
	External() settings.ExternalDataConfig
	Explorer() settings.ExplorerState
	SetRequestSettings(settings.RequestUpdate) error
	SetExternalDataSettings(settings.ExternalDataUpdate) error
	SetDisplaySettings(settings.DisplayUpdate) error
	SetGPUEnabled(bool) error
	ResetAutoLockTimer()
	Locked() bool
	Unlock()
}

// Feed streams chart data. *metrics.Feed implements it.
type Feed interface {
	Subscribe(ctx context.Context, key metrics.SelectionKey) <-chan metrics.SeriesBundle
}

// ContractLister lists selectable contracts. metrics.Source implements it.
type ContractLister interface {
	Contracts(ctx context.Context) ([]metrics.ContractRef, error)
}

// RateSource converts siacoin to fiat. *explorer.Client implements it.
type RateSource interface {
	ExchangeRate(ctx context.Context, fiat string) (float64, error)
}

// TUI is the terminal dashboard.
type TUI struct {
	store     SettingsStore
	feed      Feed
	contracts ContractLister
	rates     RateSource
	eventChan <-chan events.Event
	password  string
	onQuit    func()
	out       io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI over the preference store and chart feed.
func New(store SettingsStore, feed Feed, opts ...Option) *TUI {
	t := &TUI{
		store: store,
		feed:  feed,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithEvents sets the router subscription carrying store events.
func WithEvents(ch <-chan events.Event) Option {
	return func(t *TUI) {
		t.eventChan = ch
	}
}

// WithContracts sets the contract list provider.
func WithContracts(l ContractLister) Option {
	return func(t *TUI) {
		t.contracts = l
	}
}

// WithRates sets the exchange rate provider used for fiat display.
func WithRates(r RateSource) Option {
	return func(t *TUI) {
		t.rates = r
	}
}

// WithPassword sets the password the lock screen asks for. An empty
// password unlocks with enter.
func WithPassword(password string) Option {
	return func(t *TUI) {
		t.password = password
	}
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput sets where the line fallback writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.out = w
	}
}

// Run starts the dashboard and blocks until it exits or ctx is canceled.
// Without a usable terminal it falls back to line output.
func (t *TUI) Run(ctx context.Context) error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, t)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
