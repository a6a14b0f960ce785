package metrics

import "time"

// Point is one sample of the series. Values is keyed by series name
// (see SeriesFunding and friends).
type Point struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Series names used by the spending mode.
const (
	SeriesFunding  = "funding"
	SeriesSpent    = "spent"
	SeriesUpload   = "upload"
	SeriesDownload = "download"
	SeriesFund     = "fundAccount"
)

// SeriesSpec describes how one named series is drawn.
type SeriesSpec struct {
	Name  string
	Label string
	// Unit is "SC" for siacoin-denominated series.
	Unit string
}

// RenderConfig is passed through to the chart untouched.
type RenderConfig struct {
	Title  string
	Series []SeriesSpec
}

// SpendingConfig is the render config of the spending mode.
func SpendingConfig() RenderConfig {
	return RenderConfig{
		Title: "Funding & spending",
		Series: []SeriesSpec{
			{Name: SeriesFunding, Label: "funding", Unit: "SC"},
			{Name: SeriesSpent, Label: "spent", Unit: "SC"},
			{Name: SeriesUpload, Label: "upload", Unit: "SC"},
			{Name: SeriesDownload, Label: "download", Unit: "SC"},
			{Name: SeriesFund, Label: "fund account", Unit: "SC"},
		},
	}
}

// SeriesBundle is one immutable snapshot from a fetcher. A refresh replaces
// the whole bundle; nothing mutates one in place.
type SeriesBundle struct {
	Key       SelectionKey
	Points    []Point
	Config    RenderConfig
	IsLoading bool
	Err       error
}

// LoadingBundle is the placeholder a fetcher emits before its first result.
func LoadingBundle(key SelectionKey) SeriesBundle {
	return SeriesBundle{Key: key, IsLoading: true}
}

// ViewState is what the chart renders.
type ViewState struct {
	Source    State
	Points    []Point
	Config    RenderConfig
	IsLoading bool
	IsEmpty   bool
	Err       error
}

// DeriveView picks the bundle the selection needs and exposes it as a
// ViewState. Only the chosen bundle's loading flag counts. A bundle fetched
// for a different key (the selection moved on before the fetcher caught up)
// is shown as loading rather than as the wrong data. Unkeyed bundles are
// taken as they are.
func DeriveView(sel Selection, aggregate, perContract SeriesBundle) ViewState {
	chosen := aggregate
	if sel.State() == SingleContract {
		chosen = perContract
	}

	v := ViewState{
		Source:    sel.State(),
		Points:    chosen.Points,
		Config:    chosen.Config,
		IsLoading: chosen.IsLoading,
		Err:       chosen.Err,
	}
	if chosen.Key != (SelectionKey{}) && chosen.Key != sel.Key() {
		v.Points = nil
		v.IsLoading = true
		v.Err = nil
	}
	v.IsEmpty = !v.IsLoading && len(v.Points) == 0
	return v
}
