package renterd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

// ExternalData reads the daemon's explorer configuration. A daemon that
// does not report one leaves the explorer to the user's Siascan toggle.
// GPU capability is a property of the terminal host, not the daemon, and is
// left false.
func (c *Client) ExternalData(ctx context.Context) (settings.ExternalDataConfig, error) {
	state, err := c.State(ctx)
	if err != nil {
		return settings.ExternalDataConfig{}, err
	}
	if state.Explorer == nil {
		return settings.ExternalDataConfig{}, nil
	}
	cfg := settings.ExternalDataConfig{ExplorerConfigured: true}
	if state.Explorer.Enabled {
		cfg.ExplorerEndpoint = state.Explorer.URL
	}
	return cfg, nil
}

// metricsAPI is the part of Client the Source needs.
type metricsAPI interface {
	Contracts(ctx context.Context) ([]Contract, error)
	ContractMetrics(ctx context.Context, q MetricsQuery) ([]ContractMetric, error)
}

// Source serves the spending chart from renterd's contract metrics.
type Source struct {
	api metricsAPI
}

var _ metrics.Source = (*Source)(nil)

// NewSource wraps a client as a metrics.Source.
func NewSource(c *Client) *Source {
	return &Source{api: c}
}

// Aggregate sums every contract's samples per timestamp.
func (s *Source) Aggregate(ctx context.Context, mode metrics.GraphMode, w metrics.Window) ([]metrics.Point, error) {
	return s.points(ctx, mode, "", w)
}

// Contract returns one contract's samples.
func (s *Source) Contract(ctx context.Context, mode metrics.GraphMode, contractID string, w metrics.Window) ([]metrics.Point, error) {
	return s.points(ctx, mode, contractID, w)
}

// Contracts lists the selectable contracts, labeled by host.
func (s *Source) Contracts(ctx context.Context) ([]metrics.ContractRef, error) {
	contracts, err := s.api.Contracts(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]metrics.ContractRef, 0, len(contracts))
	for _, c := range contracts {
		label := c.HostIP
		if label == "" {
			label = c.HostKey
		}
		refs = append(refs, metrics.ContractRef{ID: c.ID, Label: label})
	}
	return refs, nil
}

func (s *Source) points(ctx context.Context, mode metrics.GraphMode, contractID string, w metrics.Window) ([]metrics.Point, error) {
	if mode != metrics.ModeSpending {
		return nil, fmt.Errorf("%w: %q", metrics.ErrUnknownGraphMode, mode)
	}

	samples, err := s.api.ContractMetrics(ctx, MetricsQuery{
		Start:      w.Start(),
		Interval:   w.Interval,
		N:          w.Periods,
		ContractID: contractID,
	})
	if err != nil {
		return nil, err
	}
	return spendingPoints(samples), nil
}

// spendingPoints folds samples into one point per timestamp, in time order.
func spendingPoints(samples []ContractMetric) []metrics.Point {
	byTime := make(map[time.Time]map[string]float64)
	for _, m := range samples {
		ts := m.Timestamp.UTC()
		values, ok := byTime[ts]
		if !ok {
			values = make(map[string]float64, 5)
			byTime[ts] = values
		}

		upload := m.UploadSpending.Siacoins()
		download := m.DownloadSpending.Siacoins()
		fund := m.FundAccountSpending.Siacoins()
		other := m.DeleteSpending.Siacoins() + m.ListSpending.Siacoins()

		values[metrics.SeriesFunding] += m.RemainingFunds.Siacoins()
		values[metrics.SeriesUpload] += upload
		values[metrics.SeriesDownload] += download
		values[metrics.SeriesFund] += fund
		values[metrics.SeriesSpent] += upload + download + fund + other
	}

	out := make([]metrics.Point, 0, len(byTime))
	for ts, values := range byTime {
		out = append(out, metrics.Point{Timestamp: ts, Values: values})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
