package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/siadash/internal/metrics"
)

const (
	minWidth  = 60
	minHeight = 15
)

// sparkBlocks are the eight levels of a sparkline cell.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Handle too small terminal
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	if m.locked {
		return m.renderLockScreen()
	}

	if m.settingsOpen {
		return placeDialog(m.width, m.height, m.dialog.render(m.styles, m.store, m.width-4))
	}

	return m.renderDashboard()
}

// renderDashboard renders the header, chart and contract list, and footer.
func (m model) renderDashboard() string {
	// Container borders take two rows and two columns per pane.
	bodyHeight := max(3, m.height-6)
	chartWidth := m.width - contractsWidth - 4

	chart := m.containerStyleForFocus(FocusChart).
		Width(safeWidth(chartWidth)).
		Height(bodyHeight).
		Render(m.renderChart(chartWidth-2, bodyHeight))

	list := m.containerStyleForFocus(FocusContracts).
		Width(contractsWidth).
		Height(bodyHeight).
		Render(m.renderContracts(contractsWidth-2, bodyHeight))

	body := lipgloss.JoinHorizontal(lipgloss.Top, chart, list)

	sections := []string{
		m.renderHeader(),
		body,
		m.renderFooter(),
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, strings.Join(sections, "\n"))
}

// containerStyleForFocus returns the border style for a pane.
func (m model) containerStyleForFocus(pane FocusedPane) lipgloss.Style {
	if m.focusedPane == pane {
		return m.styles.Focused
	}
	return m.styles.Container
}

func (m model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d", m.width, m.height, minWidth, minHeight)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.styles.Warning.Render(msg))
}

// renderHeader renders the app title and the current currency setting.
func (m model) renderHeader() string {
	w := safeWidth(m.width)
	title := m.styles.Title.Render("siadash")

	display := "display: " + string(m.prefs.CurrencyDisplay)
	if m.needsRate() {
		if m.rate.ok {
			display += "  1 SC = " + formatFiat(1, m.rate)
		} else {
			display += "  rate unavailable"
		}
	}
	right := m.styles.Subtle.Render(display)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(right))),
		right,
	)
}

// renderChart renders the chart pane: tab label, then loading, empty or
// series rows.
func (m model) renderChart(w, h int) string {
	v := m.view()

	cfg := v.Config
	if cfg.Title == "" {
		cfg = metrics.SpendingConfig()
	}
	lines := []string{
		m.styles.Tab.Render(truncate(cfg.Title+": "+m.selection.TabLabel(), w)),
		"",
	}

	switch {
	case v.IsLoading:
		lines = append(lines, m.spinner.View()+" "+m.styles.Subtle.Render("Loading metrics..."))
	case v.Err != nil && len(v.Points) == 0:
		lines = append(lines, m.styles.Error.Render(truncate("Error: "+v.Err.Error(), w)))
	case v.IsEmpty:
		lines = append(lines, m.styles.Subtle.Render("No data"))
	default:
		lines = append(lines, m.renderSeries(v, cfg, w)...)
		if v.Err != nil {
			lines = append(lines, "", m.styles.Warning.Render(truncate("Refresh failed: "+v.Err.Error(), w)))
		}
	}

	if len(lines) > h {
		lines = lines[:h]
	}
	return strings.Join(lines, "\n")
}

// renderSeries draws one labelled sparkline per series with its latest value.
func (m model) renderSeries(v metrics.ViewState, cfg metrics.RenderConfig, w int) []string {
	const labelWidth = 14
	const valueWidth = 22
	sparkWidth := max(4, w-labelWidth-valueWidth-2)

	first, last := v.Points[0].Timestamp, v.Points[len(v.Points)-1].Timestamp
	lines := []string{
		m.styles.Subtle.Render(fmt.Sprintf("%s to %s, %d points",
			first.Format("Jan 2"), last.Format("Jan 2"), len(v.Points))),
	}

	for i, spec := range cfg.Series {
		values := make([]float64, len(v.Points))
		for j, p := range v.Points {
			values[j] = p.Values[spec.Name]
		}
		latest := formatCurrency(values[len(values)-1], m.prefs.CurrencyDisplay, m.rate)

		label := fmt.Sprintf("%-*s", labelWidth, truncate(spec.Label, labelWidth-1))
		line := label +
			m.styles.seriesStyle(i).Render(sparkline(values, sparkWidth)) +
			"  " + truncate(latest, valueWidth)
		lines = append(lines, line)
	}
	return lines
}

// sparkline scales values into width block characters, keeping the most
// recent samples when there are more than width.
func sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// renderContracts renders the contract list with the cursor and selection.
func (m model) renderContracts(w, h int) string {
	lines := []string{m.styles.Heading.Render("Contracts")}

	allLabel := "  " + metrics.AllContractsLabel
	if _, ok := m.selection.Contract(); !ok {
		allLabel = m.styles.Tab.Render("* " + metrics.AllContractsLabel)
	}
	lines = append(lines, allLabel)

	switch {
	case m.contractsErr != nil && len(m.contractList) == 0:
		lines = append(lines, m.styles.Error.Render(truncate("unavailable", w)))
	case m.contracts == nil:
	case len(m.contractList) == 0:
		lines = append(lines, m.styles.Subtle.Render("none"))
	}

	selected, hasSel := m.selection.Contract()
	visible := max(1, h-len(lines))
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.contractList) && i < start+visible; i++ {
		ref := m.contractList[i]
		marker := "  "
		if hasSel && ref.ID == selected.ID {
			marker = "* "
		}
		text := truncate(marker+metrics.ShortID(ref.ID)+" "+ref.Label, w)
		if i == m.cursor && m.focusedPane == FocusContracts {
			text = m.styles.Selected.Render(text)
		} else {
			text = m.styles.Body.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders the newest notice and the key help.
func (m model) renderFooter() string {
	help := "tab: switch  ↑/↓: move  enter: select  a: all  s: settings  r: refresh  q: quit"
	if len(m.notices) == 0 {
		return m.styles.Footer.Render(truncate(help, safeWidth(m.width)))
	}
	notice := m.styles.Warning.Render(truncate(m.notices[len(m.notices)-1], safeWidth(m.width)))
	return notice + "\n" + m.styles.Footer.Render(truncate(help, safeWidth(m.width)))
}

// renderLockScreen asks for the password while the app is locked.
func (m model) renderLockScreen() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("siadash is locked"))
	b.WriteString("\n\n")
	if m.password == "" {
		b.WriteString(m.styles.Body.Render("Press enter to unlock."))
	} else {
		b.WriteString(m.styles.Body.Render("Enter the renterd password to unlock."))
		b.WriteString("\n")
		b.WriteString(m.lockInput.View())
	}
	if m.lockErr != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.lockErr))
	}
	return placeDialog(m.width, m.height, m.styles.Dialog.Render(b.String()))
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
