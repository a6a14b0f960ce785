package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func points(n int) []Point {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Values:    map[string]float64{SeriesSpent: float64(i)},
		}
	}
	return out
}

func TestDeriveView_LoadingMasksEmptiness(t *testing.T) {
	aggregate := SeriesBundle{Points: points(2)}
	perContract := SeriesBundle{IsLoading: true}

	sel := NewSelection()
	v := DeriveView(sel, aggregate, perContract)
	assert.Equal(t, Aggregate, v.Source)
	assert.False(t, v.IsLoading)
	assert.False(t, v.IsEmpty)
	assert.Len(t, v.Points, 2)

	sel.SelectContract(&ContractRef{ID: "fcid:abcdef123"})
	v = DeriveView(sel, aggregate, perContract)
	assert.Equal(t, SingleContract, v.Source)
	assert.True(t, v.IsLoading)
	assert.False(t, v.IsEmpty)
}

func TestDeriveView_OtherSourceLoadingIgnored(t *testing.T) {
	aggregate := SeriesBundle{IsLoading: true}
	perContract := SeriesBundle{Points: points(3)}

	sel := NewSelection()
	sel.SelectContract(&ContractRef{ID: "fcid:abcdef123"})

	v := DeriveView(sel, aggregate, perContract)
	assert.False(t, v.IsLoading)
	assert.Len(t, v.Points, 3)
}

func TestDeriveView_Empty(t *testing.T) {
	v := DeriveView(NewSelection(), SeriesBundle{}, SeriesBundle{IsLoading: true})
	assert.True(t, v.IsEmpty)
	assert.False(t, v.IsLoading)
}

func TestDeriveView_PassesConfigAndError(t *testing.T) {
	errFetch := errors.New("bus unreachable")
	aggregate := SeriesBundle{Config: SpendingConfig(), Err: errFetch}

	v := DeriveView(NewSelection(), aggregate, SeriesBundle{})
	assert.Equal(t, SpendingConfig(), v.Config)
	assert.ErrorIs(t, v.Err, errFetch)
	assert.True(t, v.IsEmpty)
}

func TestDeriveView_StaleKeyShownAsLoading(t *testing.T) {
	sel := NewSelection()
	sel.SelectContract(&ContractRef{ID: "fcid:new"})

	stale := SeriesBundle{
		Key:    SelectionKey{Mode: ModeSpending, ContractID: "fcid:old"},
		Points: points(4),
	}
	v := DeriveView(sel, SeriesBundle{}, stale)
	assert.True(t, v.IsLoading)
	assert.False(t, v.IsEmpty)
	assert.Empty(t, v.Points)

	fresh := stale
	fresh.Key = sel.Key()
	v = DeriveView(sel, SeriesBundle{}, fresh)
	assert.False(t, v.IsLoading)
	assert.Len(t, v.Points, 4)
}

func TestWindow_Start(t *testing.T) {
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window{End: end, Interval: 24 * time.Hour, Periods: 7}
	assert.Equal(t, end.AddDate(0, 0, -7), w.Start())
}
