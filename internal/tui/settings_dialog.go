package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/siadash/internal/settings"
)

// dialogRow identifies one editable row of the settings dialog.
type dialogRow int

const (
	rowCurrencyDisplay dialogRow = iota
	rowFiat
	rowTheme
	rowGPU
	rowAutoLock
	rowAutoLockTimeout
	rowSiascan
	rowCount
)

// helpLinks are shown at the bottom of the dialog.
var helpLinks = []struct{ label, url string }{
	{"Documentation", "https://docs.sia.tech"},
	{"renterd", "https://github.com/SiaFoundation/renterd"},
	{"Siascan", "https://siascan.com"},
}

// settingsDialog is the preferences overlay. Values are read from the store
// on every render; the dialog only tracks the cursor and the last error.
type settingsDialog struct {
	cursor dialogRow
	err    string
}

// handleKey moves the cursor or changes the value under it.
func (d *settingsDialog) handleKey(key string, store SettingsStore) {
	switch key {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
		d.err = ""
	case "down", "j", "tab":
		if d.cursor < rowCount-1 {
			d.cursor++
		}
		d.err = ""
	case "left", "h":
		d.setErr(d.step(store, -1))
	case "right", "l", " ", "enter":
		d.setErr(d.step(store, 1))
	}
}

func (d *settingsDialog) setErr(err error) {
	if err == nil {
		d.err = ""
		return
	}
	d.err = err.Error()
}

// step changes the current row's value by dir positions. Toggles ignore
// the direction.
func (d *settingsDialog) step(store SettingsStore, dir int) error {
	cur := store.Get()

	switch d.cursor {
	case rowCurrencyDisplay:
		next := cycle(settings.CurrencyDisplayModes, cur.CurrencyDisplay, dir)
		return store.SetDisplaySettings(settings.DisplayUpdate{CurrencyDisplay: &next})

	case rowFiat:
		next := cycle(settings.FiatCurrencies, cur.FiatCurrency, dir)
		return store.SetDisplaySettings(settings.DisplayUpdate{FiatCurrency: &next})

	case rowTheme:
		next := cycle(settings.Themes, cur.Theme, dir)
		return store.SetRequestSettings(settings.RequestUpdate{Theme: &next})

	case rowGPU:
		return store.SetGPUEnabled(!cur.GPUEnabled)

	case rowAutoLock:
		next := !cur.AutoLock
		return store.SetRequestSettings(settings.RequestUpdate{AutoLock: &next})

	case rowAutoLockTimeout:
		if !cur.AutoLock {
			return errors.New("turn on Lock app to change the timeout")
		}
		next := cycle(settings.AutoLockTimeouts, cur.AutoLockTimeout(), dir)
		return store.SetRequestSettings(settings.RequestUpdate{AutoLockTimeout: &next})

	case rowSiascan:
		next := !cur.SiascanEnabled
		return store.SetExternalDataSettings(settings.ExternalDataUpdate{Siascan: &next})
	}
	return nil
}

// cycle returns the option dir positions away from cur, wrapping around.
// An unknown cur starts from the first option.
func cycle[T comparable](opts []T, cur T, dir int) T {
	idx := 0
	for i, o := range opts {
		if o == cur {
			idx = i
			break
		}
	}
	n := len(opts)
	return opts[((idx+dir)%n+n)%n]
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

// render draws the dialog for the current store state.
func (d settingsDialog) render(st styles, store SettingsStore, width int) string {
	cur := store.Get()
	ext := store.External()
	explorer := store.Explorer()

	var b strings.Builder
	b.WriteString(st.Title.Render("App preferences"))
	b.WriteString("\n")

	row := func(r dialogRow, label, value string, disabled bool) {
		line := label + strings.Repeat(" ", max(1, 20-len(label))) + "< " + value + " >"
		switch {
		case r == d.cursor:
			line = st.Selected.Render("> " + line)
		case disabled:
			line = st.Disabled.Render("  " + line)
		default:
			line = st.Body.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	heading := func(text string) {
		b.WriteString("\n")
		b.WriteString(st.Heading.Render(text))
		b.WriteString("\n")
	}

	heading("Display")
	row(rowCurrencyDisplay, "Currency display", string(cur.CurrencyDisplay), false)
	row(rowFiat, "Fiat currency", strings.ToUpper(cur.FiatCurrency), false)
	row(rowTheme, "Theme", string(cur.Theme), false)
	gpu := onOff(cur.GPUEnabled)
	if !ext.GPUCapable {
		gpu = "Unavailable"
	}
	row(rowGPU, "GPU", gpu, !ext.GPUCapable)

	heading("Security")
	row(rowAutoLock, "Lock app", onOff(cur.AutoLock), false)
	row(rowAutoLockTimeout, "Lock timeout", timeoutLabel(cur.AutoLockTimeout()), !cur.AutoLock)

	heading("Privacy")
	if explorer.Managed {
		endpoint := explorer.Endpoint
		if endpoint == "" {
			endpoint = "Not configured"
		}
		row(rowSiascan, "Explorer (daemon)", truncate(endpoint, max(10, width-30)), true)
	} else {
		row(rowSiascan, "Siascan", onOff(cur.SiascanEnabled), false)
	}

	heading("Help")
	for _, l := range helpLinks {
		b.WriteString(st.Subtle.Render("  " + l.label + ": " + l.url))
		b.WriteString("\n")
	}

	if d.err != "" {
		b.WriteString("\n")
		b.WriteString(st.Error.Render(d.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.Footer.Render("↑/↓ move  ←/→ change  esc close"))

	return st.Dialog.Width(min(width, 64)).Render(b.String())
}

// placeDialog centers content over a width x height area.
func placeDialog(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
