package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/siadash/internal/settings"
)

// palette holds the colors of one theme.
type palette struct {
	Border   lipgloss.TerminalColor
	Accent   lipgloss.TerminalColor
	Text     lipgloss.TerminalColor
	Subtle   lipgloss.TerminalColor
	Warning  lipgloss.TerminalColor
	Error    lipgloss.TerminalColor
	Selected lipgloss.TerminalColor
	Series   []lipgloss.TerminalColor
}

var darkPalette = palette{
	Border:   lipgloss.Color("240"),
	Accent:   lipgloss.Color("42"),
	Text:     lipgloss.Color("252"),
	Subtle:   lipgloss.Color("245"),
	Warning:  lipgloss.Color("214"),
	Error:    lipgloss.Color("196"),
	Selected: lipgloss.Color("236"),
	Series: []lipgloss.TerminalColor{
		lipgloss.Color("39"), lipgloss.Color("212"), lipgloss.Color("114"),
		lipgloss.Color("177"), lipgloss.Color("220"),
	},
}

var lightPalette = palette{
	Border:   lipgloss.Color("250"),
	Accent:   lipgloss.Color("28"),
	Text:     lipgloss.Color("235"),
	Subtle:   lipgloss.Color("242"),
	Warning:  lipgloss.Color("130"),
	Error:    lipgloss.Color("160"),
	Selected: lipgloss.Color("254"),
	Series: []lipgloss.TerminalColor{
		lipgloss.Color("25"), lipgloss.Color("125"), lipgloss.Color("28"),
		lipgloss.Color("91"), lipgloss.Color("136"),
	},
}

// systemPalette lets the terminal background pick between the two.
func systemPalette() palette {
	adaptive := func(light, dark lipgloss.TerminalColor) lipgloss.TerminalColor {
		return lipgloss.AdaptiveColor{
			Light: string(light.(lipgloss.Color)),
			Dark:  string(dark.(lipgloss.Color)),
		}
	}
	p := palette{
		Border:   adaptive(lightPalette.Border, darkPalette.Border),
		Accent:   adaptive(lightPalette.Accent, darkPalette.Accent),
		Text:     adaptive(lightPalette.Text, darkPalette.Text),
		Subtle:   adaptive(lightPalette.Subtle, darkPalette.Subtle),
		Warning:  adaptive(lightPalette.Warning, darkPalette.Warning),
		Error:    adaptive(lightPalette.Error, darkPalette.Error),
		Selected: adaptive(lightPalette.Selected, darkPalette.Selected),
	}
	for i := range darkPalette.Series {
		p.Series = append(p.Series, adaptive(lightPalette.Series[i], darkPalette.Series[i]))
	}
	return p
}

func paletteFor(theme settings.Theme) palette {
	switch theme {
	case settings.ThemeLight:
		return lightPalette
	case settings.ThemeDark:
		return darkPalette
	default:
		return systemPalette()
	}
}

// styles contains all lipgloss styles used by the TUI for one theme.
type styles struct {
	// Layout styles
	Container lipgloss.Style
	Focused   lipgloss.Style
	Dialog    lipgloss.Style
	Divider   lipgloss.Style

	// Text styles
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Body     lipgloss.Style
	Subtle   lipgloss.Style
	Footer   lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style
	Disabled lipgloss.Style

	// Tab shows the chart's active tab
	Tab lipgloss.Style

	// Series colors, cycled by index
	Series []lipgloss.Style
}

func newStyles(theme settings.Theme) styles {
	p := paletteFor(theme)

	s := styles{
		Container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),

		Focused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),

		Divider: lipgloss.NewStyle().Foreground(p.Border),

		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		Body:    lipgloss.NewStyle().Foreground(p.Text),
		Subtle:  lipgloss.NewStyle().Foreground(p.Subtle),
		Footer:  lipgloss.NewStyle().Foreground(p.Subtle),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Error:   lipgloss.NewStyle().Foreground(p.Error),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent).
			Background(p.Selected),

		Disabled: lipgloss.NewStyle().Foreground(p.Subtle).Faint(true),

		Tab: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent).
			Underline(true),
	}
	for _, c := range p.Series {
		s.Series = append(s.Series, lipgloss.NewStyle().Foreground(c))
	}
	return s
}

// seriesStyle returns the style for the i-th series.
func (s styles) seriesStyle(i int) lipgloss.Style {
	if len(s.Series) == 0 {
		return s.Body
	}
	return s.Series[i%len(s.Series)]
}
