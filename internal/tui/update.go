package tui

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/siadash/internal/events"
	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

const (
	// contractsInterval is how often the contract list is refreshed.
	contractsInterval = time.Minute
	// rateInterval is how often the exchange rate is refreshed.
	rateInterval = 5 * time.Minute
	// fetchTimeout bounds one contract list or rate request.
	fetchTimeout = 15 * time.Second
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// subscribeMsg asks Update to open a feed stream.
type subscribeMsg struct{}

// bundleMsg carries one bundle from the stream with id subID.
type bundleMsg struct {
	subID  int
	bundle metrics.SeriesBundle
}

// feedClosedMsg signals that the stream with id subID ended.
type feedClosedMsg struct {
	subID int
}

type contractsMsg struct {
	refs []metrics.ContractRef
	err  error
}

type contractsTickMsg time.Time

type rateMsg struct {
	fiat  string
	value float64
	err   error
}

type rateTickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// waitForBundle waits for the next bundle of sub.
func waitForBundle(sub *subscription) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-sub.ch
		if !ok {
			return feedClosedMsg{subID: sub.id}
		}
		return bundleMsg{subID: sub.id, bundle: b}
	}
}

func doContractsTick() tea.Cmd {
	return tea.Tick(contractsInterval, func(t time.Time) tea.Msg {
		return contractsTickMsg(t)
	})
}

func doRateTick() tea.Cmd {
	return tea.Tick(rateInterval, func(t time.Time) tea.Msg {
		return rateTickMsg(t)
	})
}

func (m model) startAggregateCmd() tea.Cmd {
	return func() tea.Msg { return subscribeMsg{} }
}

func (m model) fetchContractsCmd() tea.Cmd {
	if m.contracts == nil {
		return nil
	}
	lister, parent := m.contracts, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		refs, err := lister.Contracts(ctx)
		return contractsMsg{refs: refs, err: err}
	}
}

func (m model) fetchRateCmd() tea.Cmd {
	if !m.needsRate() {
		return nil
	}
	rates, parent, fiat := m.rates, m.ctx, m.prefs.FiatCurrency
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, fetchTimeout)
		defer cancel()
		v, err := rates.ExchangeRate(ctx, fiat)
		return rateMsg{fiat: fiat, value: v, err: err}
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The key that finds the app locked only reveals the lock screen.
		if msg.String() != "ctrl+c" && m.missedLock() {
			cmd := m.engageLock()
			return m, cmd
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.missedLock() {
			cmd := m.engageLock()
			return m, cmd
		}
		if !m.locked {
			m.store.ResetAutoLockTimer()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lockInput.Width = min(40, max(10, msg.Width-20))
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(events.Event(msg))
		return m, tea.Batch(cmd, waitForEvent(m.eventChan))

	case channelClosedMsg:
		// Event channel closed - clean exit
		slog.Info("event channel closed, exiting TUI")
		return m.quit()

	case subscribeMsg:
		cmd := m.subscribe(true)
		return m, cmd

	case bundleMsg:
		switch {
		case m.aggSub != nil && msg.subID == m.aggSub.id:
			m.aggregate = msg.bundle
			return m, waitForBundle(m.aggSub)
		case m.contractSub != nil && msg.subID == m.contractSub.id:
			m.perContract = msg.bundle
			return m, waitForBundle(m.contractSub)
		}
		// Stale stream from a previous selection
		return m, nil

	case feedClosedMsg:
		return m, nil

	case contractsMsg:
		m.handleContracts(msg)
		return m, nil

	case contractsTickMsg:
		return m, tea.Batch(m.fetchContractsCmd(), doContractsTick())

	case rateMsg:
		if msg.fiat != m.prefs.FiatCurrency {
			return m, nil
		}
		if msg.err != nil {
			slog.Warn("exchange rate unavailable", "currency", msg.fiat, "error", msg.err)
			m.rate = rate{}
			return m, nil
		}
		m.rate = rate{fiat: msg.fiat, value: msg.value, ok: true}
		return m, nil

	case rateTickMsg:
		return m, tea.Batch(m.fetchRateCmd(), doRateTick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		if m.locked {
			var cmd tea.Cmd
			m.lockInput, cmd = m.lockInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// handleEvent applies a store event.
func (m *model) handleEvent(event events.Event) tea.Cmd {
	switch e := event.(type) {
	case *settings.ChangedEvent:
		return m.applyPrefs(e.Settings)

	case *settings.LockedEvent:
		return m.engageLock()

	case *settings.UnlockedEvent:
		m.locked = false
		m.lockInput.Blur()

	case *events.NoticeEvent:
		m.pushNotice(e.Message)
	}
	return nil
}

// applyPrefs takes a new preferences snapshot, rebuilding styles and
// refetching the rate when the inputs to either changed.
func (m *model) applyPrefs(next settings.Settings) tea.Cmd {
	prev := m.prefs
	m.prefs = next
	if prev.Theme != next.Theme {
		m.styles = newStyles(next.Theme)
	}
	if prev.FiatCurrency != next.FiatCurrency ||
		prev.CurrencyDisplay != next.CurrencyDisplay ||
		prev.SiascanEnabled != next.SiascanEnabled {
		m.rate = rate{}
		return m.fetchRateCmd()
	}
	return nil
}

// handleContracts stores a fresh contract list and drops a selection whose
// contract is gone.
func (m *model) handleContracts(msg contractsMsg) {
	if msg.err != nil {
		slog.Warn("contract list unavailable", "error", msg.err)
		m.contractsErr = msg.err
		return
	}
	m.contractsErr = nil
	m.contractList = msg.refs
	if m.cursor >= len(m.contractList) {
		m.cursor = max(0, len(m.contractList)-1)
	}

	present := make(map[string]bool, len(msg.refs))
	for _, r := range msg.refs {
		present[r.ID] = true
	}
	if m.selection.Reconcile(func(id string) bool { return present[id] }) {
		m.dropContractStream()
		m.pushNotice("Selected contract is no longer available, showing all contracts.")
	}
}

// missedLock reports whether the store locked without the model seeing the
// event. The router drops events for a full subscriber.
func (m model) missedLock() bool {
	return !m.locked && m.store.Locked()
}

// engageLock shows the lock screen. It is a no-op when already locked so a
// late LockedEvent does not clear a password being typed.
func (m *model) engageLock() tea.Cmd {
	if m.locked {
		return nil
	}
	m.locked = true
	m.settingsOpen = false
	m.lockErr = ""
	m.lockInput.Reset()
	return m.lockInput.Focus()
}

// subscribe opens a feed stream for the aggregate series or for the
// selected contract, replacing any previous stream of that kind.
func (m *model) subscribe(aggregate bool) tea.Cmd {
	if m.feed == nil {
		return nil
	}

	key := m.selection.Key()
	if aggregate {
		key = metrics.SelectionKey{Mode: m.selection.GraphMode()}
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.nextSubID++
	sub := &subscription{id: m.nextSubID, ch: m.feed.Subscribe(ctx, key), cancel: cancel}

	if aggregate {
		if m.aggSub != nil {
			m.aggSub.cancel()
		}
		m.aggSub = sub
		m.aggregate = metrics.LoadingBundle(key)
	} else {
		m.dropContractStream()
		m.contractSub = sub
		m.perContract = metrics.LoadingBundle(key)
	}
	return waitForBundle(sub)
}

func (m *model) dropContractStream() {
	if m.contractSub != nil {
		m.contractSub.cancel()
		m.contractSub = nil
	}
	m.perContract = metrics.SeriesBundle{}
}

// selectContract changes the chart selection. nil shows all contracts.
func (m *model) selectContract(ref *metrics.ContractRef) tea.Cmd {
	if ref == nil {
		m.selection.SelectContract(nil)
		m.dropContractStream()
		return nil
	}
	if cur, ok := m.selection.Contract(); ok && cur.ID == ref.ID {
		return nil
	}
	m.selection.SelectContract(ref)
	return m.subscribe(false)
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.stopSubscriptions()
	if m.onQuit != nil {
		m.onQuit()
	}
	return m, tea.Quit
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m.quit()
	}

	if m.locked {
		return m.handleLockKey(msg)
	}

	// Any input counts as activity.
	m.store.ResetAutoLockTimer()

	if m.settingsOpen {
		switch key {
		case "esc", "s", "q":
			m.settingsOpen = false
			return m, nil
		}
		m.dialog.handleKey(key, m.store)
		cmd := m.applyPrefs(m.store.Get())
		return m, cmd
	}

	switch key {
	case "q":
		return m.quit()

	case "s", ",":
		m.settingsOpen = true
		m.dialog = settingsDialog{}
		return m, nil

	case "tab":
		if m.focusedPane == FocusChart {
			m.focusedPane = FocusContracts
		} else {
			m.focusedPane = FocusChart
		}
		return m, nil

	case "a", "esc":
		cmd := m.selectContract(nil)
		return m, cmd

	case "up", "k":
		if m.focusedPane == FocusContracts && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.focusedPane == FocusContracts && m.cursor < len(m.contractList)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if m.focusedPane == FocusContracts && m.cursor < len(m.contractList) {
			ref := m.contractList[m.cursor]
			cmd := m.selectContract(&ref)
			return m, cmd
		}
		return m, nil

	case "r":
		cmds := []tea.Cmd{m.subscribe(true), m.fetchContractsCmd(), m.fetchRateCmd()}
		if _, ok := m.selection.Contract(); ok {
			cmds = append(cmds, m.subscribe(false))
		}
		return m, tea.Batch(cmds...)

	default:
		return m, nil
	}
}

// handleLockKey feeds the lock screen's password input.
func (m model) handleLockKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.lockInput, cmd = m.lockInput.Update(msg)
		m.lockErr = ""
		return m, cmd
	}

	if !m.checkPassword(m.lockInput.Value()) {
		m.lockErr = "Incorrect password."
		m.lockInput.Reset()
		return m, nil
	}

	m.locked = false
	m.lockErr = ""
	m.lockInput.Reset()
	m.lockInput.Blur()
	m.store.Unlock()
	return m, nil
}

func (m model) checkPassword(input string) bool {
	if m.password == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(input), []byte(m.password)) == 1
}
