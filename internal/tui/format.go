package tui

import (
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/npratt/siadash/internal/settings"
)

var printer = message.NewPrinter(language.English)

// rate is an exchange rate for one fiat currency. ok is false until a rate
// has been fetched for the current fiat and explorer settings.
type rate struct {
	fiat  string
	value float64
	ok    bool
}

// formatSiacoin renders an amount in siacoin with grouping.
func formatSiacoin(sc float64) string {
	return printer.Sprintf("%.2f SC", sc)
}

// formatFiat renders an amount converted with r.
func formatFiat(sc float64, r rate) string {
	unit, err := currency.ParseISO(strings.ToUpper(r.fiat))
	if err != nil {
		return printer.Sprintf("%.2f %s", sc*r.value, strings.ToUpper(r.fiat))
	}
	return printer.Sprint(currency.Symbol(unit.Amount(sc * r.value)))
}

// formatCurrency renders sc in the user's display mode. Fiat needs a rate;
// without one the siacoin value is shown.
func formatCurrency(sc float64, mode settings.CurrencyDisplayMode, r rate) string {
	if !r.ok || mode == settings.CurrencySiacoin {
		return formatSiacoin(sc)
	}
	if mode == settings.CurrencyFiat {
		return formatFiat(sc, r)
	}
	return formatSiacoin(sc) + " (" + formatFiat(sc, r) + ")"
}

// timeoutLabel names an auto-lock timeout the way the selector shows it.
func timeoutLabel(d time.Duration) string {
	if d == time.Hour {
		return "1 hour"
	}
	return printer.Sprintf("%d minutes", int(d.Minutes()))
}

// truncate shortens s to width runes, marking the cut.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
