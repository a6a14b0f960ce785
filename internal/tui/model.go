package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/siadash/internal/events"
	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

// FocusedPane represents which pane currently has keyboard focus.
type FocusedPane int

const (
	// FocusChart means the chart has focus (default).
	FocusChart FocusedPane = iota
	// FocusContracts means the contract list has focus.
	FocusContracts
)

// Layout size constants.
const (
	// contractsWidth is the width of the contract list column.
	contractsWidth = 26
	// maxNotices is how many notices are kept for the footer.
	maxNotices = 5
)

// subscription is one live feed stream.
type subscription struct {
	id     int
	ch     <-chan metrics.SeriesBundle
	cancel context.CancelFunc
}

// model is the bubbletea model for the TUI.
type model struct {
	ctx context.Context

	// Collaborators
	store     SettingsStore
	feed      Feed
	contracts ContractLister
	rates     RateSource
	eventChan <-chan events.Event
	password  string
	onQuit    func()

	// Preferences snapshot and the styles built from it
	prefs  settings.Settings
	styles styles

	// Chart state
	selection   metrics.Selection
	aggregate   metrics.SeriesBundle
	perContract metrics.SeriesBundle
	aggSub      *subscription
	contractSub *subscription
	nextSubID   int
	spinner     spinner.Model

	// Contract list
	contractList []metrics.ContractRef
	contractsErr error
	cursor       int

	// Exchange rate for fiat display
	rate rate

	// Overlays
	settingsOpen bool
	dialog       settingsDialog
	locked       bool
	lockInput    textinput.Model
	lockErr      string

	// UI state
	width       int
	height      int
	focusedPane FocusedPane
	notices     []string
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, t *TUI) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	in := textinput.New()
	in.Placeholder = "password"
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 256

	prefs := t.store.Get()
	m := model{
		ctx:       ctx,
		store:     t.store,
		feed:      t.feed,
		contracts: t.contracts,
		rates:     t.rates,
		eventChan: t.eventChan,
		password:  t.password,
		onQuit:    t.onQuit,
		prefs:     prefs,
		styles:    newStyles(prefs.Theme),
		selection: metrics.NewSelection(),
		spinner:   sp,
		lockInput: in,
		locked:    t.store.Locked(),
	}
	m.aggregate = metrics.LoadingBundle(m.selection.Key())
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.startAggregateCmd(),
		m.fetchContractsCmd(),
		doContractsTick(),
		doRateTick(),
	}
	if m.eventChan != nil {
		cmds = append(cmds, waitForEvent(m.eventChan))
	}
	if cmd := m.fetchRateCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// view returns the derived chart state for the current selection.
func (m model) view() metrics.ViewState {
	return metrics.DeriveView(m.selection, m.aggregate, m.perContract)
}

// needsRate reports whether the display mode wants a fiat rate and the
// explorer is allowed to provide one.
func (m model) needsRate() bool {
	return m.rates != nil &&
		m.prefs.CurrencyDisplay != settings.CurrencySiacoin &&
		m.store.Explorer().Enabled
}

// pushNotice appends a footer notice, keeping the most recent few.
func (m *model) pushNotice(text string) {
	m.notices = append(m.notices, text)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// stopSubscriptions cancels every live feed stream.
func (m *model) stopSubscriptions() {
	if m.aggSub != nil {
		m.aggSub.cancel()
	}
	if m.contractSub != nil {
		m.contractSub.cancel()
	}
}
