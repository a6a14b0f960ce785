// Package explorer fetches exchange rates from a Siascan-compatible
// explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/npratt/siadash/internal/clock"
	"github.com/npratt/siadash/internal/settings"
)

// ErrDisabled is returned when the explorer is turned off, either by the
// user's Siascan toggle or by the daemon's configuration.
var ErrDisabled = errors.New("explorer disabled")

// DefaultRateTTL is how long a fetched rate is reused.
const DefaultRateTTL = 5 * time.Minute

// StateFunc reports the effective explorer setting at call time.
// *settings.Store's Explorer method satisfies it.
type StateFunc func() settings.ExplorerState

// Config configures a Client.
type Config struct {
	State      StateFunc
	HTTPClient *http.Client
	RateTTL    time.Duration
	Clock      clock.Clock
	Logger     *slog.Logger
}

type cachedRate struct {
	endpoint string
	rate     float64
	at       time.Time
}

// Client fetches siacoin exchange rates. It consults the explorer state on
// every call so a toggle takes effect immediately.
type Client struct {
	state      StateFunc
	httpClient *http.Client
	ttl        time.Duration
	clock      clock.Clock
	logger     *slog.Logger

	mu    sync.Mutex
	rates map[string]cachedRate
}

// NewClient creates a Client.
func NewClient(config Config) (*Client, error) {
	if config.State == nil {
		return nil, fmt.Errorf("explorer: State is required")
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if config.RateTTL <= 0 {
		config.RateTTL = DefaultRateTTL
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		state:      config.State,
		httpClient: config.HTTPClient,
		ttl:        config.RateTTL,
		clock:      config.Clock,
		logger:     config.Logger,
		rates:      make(map[string]cachedRate),
	}, nil
}

// ExchangeRate returns the price of one siacoin in fiat (an ISO 4217 code).
func (c *Client) ExchangeRate(ctx context.Context, fiat string) (float64, error) {
	state := c.state()
	if !state.Enabled || state.Endpoint == "" {
		return 0, ErrDisabled
	}
	fiat, err := settings.NormalizeFiat(fiat)
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	c.mu.Lock()
	cached, ok := c.rates[fiat]
	c.mu.Unlock()
	if ok && cached.endpoint == state.Endpoint && now.Sub(cached.at) < c.ttl {
		return cached.rate, nil
	}

	rate, err := c.fetchRate(ctx, state.Endpoint, fiat)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.rates[fiat] = cachedRate{endpoint: state.Endpoint, rate: rate, at: now}
	c.mu.Unlock()
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, endpoint, fiat string) (float64, error) {
	requestURL := strings.TrimRight(endpoint, "/") + "/exchange-rate/siacoin/" + url.PathEscape(fiat)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("explorer: failed to create request: %w", err)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, fmt.Errorf("explorer: request to %s failed: %w", requestURL, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	if err != nil {
		return 0, fmt.Errorf("explorer: failed to read response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("explorer: unexpected %d response from %s: %s",
			response.StatusCode, requestURL, strings.TrimSpace(string(body)))
	}

	var rate float64
	if err := json.Unmarshal(body, &rate); err != nil {
		return 0, fmt.Errorf("explorer: failed to parse exchange rate: %w", err)
	}
	c.logger.Debug("fetched exchange rate", "currency", fiat, "rate", rate)
	return rate, nil
}
