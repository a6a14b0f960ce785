package tui

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

func TestView_LoadingBeforeFirstBundle(t *testing.T) {
	m, _ := newHarness(t, settings.Options{})

	out := m.View()

	assert.Contains(t, out, "Funding & spending: All contracts")
	assert.Contains(t, out, "Loading metrics")
	assert.NotContains(t, out, "No data")
}

func TestView_EmptyState(t *testing.T) {
	m, _ := newHarness(t, settings.Options{})
	m.aggregate = dataBundle(metrics.SelectionKey{Mode: metrics.ModeSpending})

	out := m.View()

	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "Loading metrics")
}

func TestView_SeriesRows(t *testing.T) {
	m, h := newHarness(t, settings.Options{})
	m = started(t, m, h)

	out := m.View()

	for _, spec := range metrics.SpendingConfig().Series {
		assert.Contains(t, out, spec.Label)
	}
	assert.Contains(t, out, "3 points")
	assert.Contains(t, out, "SC")
}

func TestView_RefreshErrorKeepsData(t *testing.T) {
	m, h := newHarness(t, settings.Options{})
	m = started(t, m, h)
	m.aggregate.Err = errors.New("bus unreachable")

	out := m.View()

	assert.Contains(t, out, "3 points")
	assert.Contains(t, out, "Refresh failed")
}

func TestView_ContractTabLabel(t *testing.T) {
	m, h := newHarness(t, settings.Options{})
	m = withContracts(t, started(t, m, h))
	m = press(t, m, "tab", "enter")

	out := m.View()

	assert.Contains(t, out, "Funding & spending: Contract aaaaaa")
	assert.Contains(t, out, "host-a:9982")
}

func TestView_TooSmall(t *testing.T) {
	m, _ := newHarness(t, settings.Options{})
	m.width, m.height = 40, 10

	assert.Contains(t, m.View(), "Terminal too small")
}

func TestView_LockScreenHidesDashboard(t *testing.T) {
	m, _ := lockedModel(t, "secret")

	out := m.View()

	assert.Contains(t, out, "locked")
	assert.Contains(t, out, "password")
	assert.NotContains(t, out, "Funding & spending")
}

func TestView_SettingsDialogSections(t *testing.T) {
	m, _ := newHarness(t, settings.Options{})
	m = press(t, m, "s")

	out := m.View()

	for _, want := range []string{"App preferences", "Display", "Security", "Privacy", "Help", "Siascan", "1 hour", "USD"} {
		assert.Contains(t, out, want)
	}
}

func TestView_FooterShowsLatestNotice(t *testing.T) {
	m, _ := newHarness(t, settings.Options{})
	m.pushNotice("first")
	m.pushNotice("second")

	out := m.renderFooter()

	assert.Contains(t, out, "second")
	assert.NotContains(t, out, "first")
}

func TestPushNotice_KeepsMostRecent(t *testing.T) {
	var m model
	for i := 0; i < maxNotices+3; i++ {
		m.pushNotice(strings.Repeat("x", i+1))
	}
	require.Len(t, m.notices, maxNotices)
	assert.Equal(t, strings.Repeat("x", maxNotices+3), m.notices[maxNotices-1])
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"empty", nil, 5, ""},
		{"flat", []float64{2, 2, 2}, 5, "▁▁▁"},
		{"rising", []float64{0, 7}, 5, "▁█"},
		{"keeps newest", []float64{0, 0, 7, 0}, 2, "█▁"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sparkline(tt.values, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.width)
		})
	}
}
