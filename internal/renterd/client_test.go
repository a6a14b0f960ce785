package renterd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/siadash/internal/metrics"
	"github.com/npratt/siadash/internal/settings"
)

const testPassword = "hunter2"

// newTestServer serves the bus endpoints from canned JSON and enforces the
// API password.
func newTestServer(t *testing.T, routes map[string]string) (*Client, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "" || pass != testPassword {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{Address: srv.URL + "/api", Password: testPassword})
	require.NoError(t, err)
	return c, &seen
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientConfig{Address: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestClient_Contracts(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{
		"/api/bus/contracts": `[
			{"id":"fcid:aaaa1111","hostKey":"ed25519:01","hostIP":"host1.example:9982","state":"active","size":4096,"totalCost":"5000000000000000000000000"},
			{"id":"fcid:bbbb2222","hostKey":"ed25519:02","state":"active","totalCost":"0"}
		]`,
	})

	contracts, err := c.Contracts(context.Background())
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "fcid:aaaa1111", contracts[0].ID)
	assert.InDelta(t, 5.0, contracts[0].TotalCost.Siacoins(), 1e-9)
	assert.Equal(t, uint64(4096), contracts[0].Size)
}

func TestClient_ContractMetricsQuery(t *testing.T) {
	c, seen := newTestServer(t, map[string]string{
		"/api/bus/metric/contract": `[]`,
	})

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.ContractMetrics(context.Background(), MetricsQuery{
		Start:      start,
		Interval:   24 * time.Hour,
		N:          7,
		ContractID: "fcid:aaaa1111",
	})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	q := (*seen)[0].URL.Query()
	assert.Equal(t, "2026-04-01T00:00:00Z", q.Get("start"))
	assert.Equal(t, "86400000", q.Get("interval"))
	assert.Equal(t, "7", q.Get("n"))
	assert.Equal(t, "fcid:aaaa1111", q.Get("contractID"))
}

func TestClient_Unauthorized(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{"/api/bus/state": `{}`})
	c.password = "wrong"

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/bus/state", apiErr.Path)
	assert.Equal(t, "unauthorized", apiErr.Message)
}

func TestClient_ExternalData(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  settings.ExternalDataConfig
	}{
		{
			name:  "no explorer support",
			state: `{"network":"mainnet","version":"1.0.0"}`,
			want:  settings.ExternalDataConfig{},
		},
		{
			name:  "explorer enabled",
			state: `{"explorer":{"enabled":true,"url":"https://api.siascan.com"}}`,
			want:  settings.ExternalDataConfig{ExplorerConfigured: true, ExplorerEndpoint: "https://api.siascan.com"},
		},
		{
			name:  "explorer disabled",
			state: `{"explorer":{"enabled":false,"url":"https://api.siascan.com"}}`,
			want:  settings.ExternalDataConfig{ExplorerConfigured: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, map[string]string{"/api/bus/state": tt.state})
			got, err := c.ExternalData(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrency_JSON(t *testing.T) {
	var c Currency
	require.NoError(t, json.Unmarshal([]byte(`"1500000000000000000000000"`), &c))
	assert.InDelta(t, 1.5, c.Siacoins(), 1e-12)

	require.NoError(t, json.Unmarshal([]byte(`42`), &c))
	assert.Equal(t, "42", c.String())

	assert.Error(t, json.Unmarshal([]byte(`"1.5"`), &c))

	out, err := json.Marshal(Siacoins(3))
	require.NoError(t, err)
	assert.Equal(t, `"3000000000000000000000000"`, string(out))
}

func TestSource_AggregateSumsPerTimestamp(t *testing.T) {
	c, seen := newTestServer(t, map[string]string{
		"/api/bus/metric/contract": `[
			{"timestamp":"2026-04-02T00:00:00Z","contractID":"fcid:a","remainingFunds":"2000000000000000000000000","uploadSpending":"1000000000000000000000000","downloadSpending":"0","fundAccountSpending":"0","deleteSpending":"0","listSpending":"0"},
			{"timestamp":"2026-04-01T00:00:00Z","contractID":"fcid:a","remainingFunds":"3000000000000000000000000","uploadSpending":"0","downloadSpending":"0","fundAccountSpending":"0","deleteSpending":"0","listSpending":"0"},
			{"timestamp":"2026-04-02T00:00:00Z","contractID":"fcid:b","remainingFunds":"1000000000000000000000000","uploadSpending":"0","downloadSpending":"500000000000000000000000","fundAccountSpending":"500000000000000000000000","deleteSpending":"0","listSpending":"0"}
		]`,
	})
	src := NewSource(c)

	w := metrics.Window{
		End:      time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Interval: 24 * time.Hour,
		Periods:  2,
	}
	points, err := src.Aggregate(context.Background(), metrics.ModeSpending, w)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp), "sorted by time")
	assert.InDelta(t, 3.0, points[0].Values[metrics.SeriesFunding], 1e-9)
	assert.InDelta(t, 0.0, points[0].Values[metrics.SeriesSpent], 1e-9)

	assert.InDelta(t, 3.0, points[1].Values[metrics.SeriesFunding], 1e-9)
	assert.InDelta(t, 1.0, points[1].Values[metrics.SeriesUpload], 1e-9)
	assert.InDelta(t, 0.5, points[1].Values[metrics.SeriesDownload], 1e-9)
	assert.InDelta(t, 2.0, points[1].Values[metrics.SeriesSpent], 1e-9)

	q := (*seen)[0].URL.Query()
	assert.Equal(t, "2026-04-01T00:00:00Z", q.Get("start"))
	assert.Empty(t, q.Get("contractID"))
}

func TestSource_UnknownMode(t *testing.T) {
	c, _ := newTestServer(t, nil)
	_, err := NewSource(c).Contract(context.Background(), "revenue", "fcid:a", metrics.Window{})
	assert.ErrorIs(t, err, metrics.ErrUnknownGraphMode)
}

func TestSource_Contracts(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{
		"/api/bus/contracts": `[{"id":"fcid:a","hostKey":"ed25519:01","hostIP":"h1:9982"},{"id":"fcid:b","hostKey":"ed25519:02"}]`,
	})

	refs, err := NewSource(c).Contracts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []metrics.ContractRef{
		{ID: "fcid:a", Label: "h1:9982"},
		{ID: "fcid:b", Label: "ed25519:02"},
	}, refs)
}
