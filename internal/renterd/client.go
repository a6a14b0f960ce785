// Package renterd is a small client for the renterd bus API: contracts,
// contract metrics and daemon state. It also adapts those endpoints to the
// metrics.Source the spending chart reads from.
package renterd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAddress is renterd's default API address.
const DefaultAddress = "http://localhost:9980/api"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Address is the API base URL including the /api prefix.
	Address string
	// Password is the API password; renterd uses basic auth with an empty
	// user name.
	Password string
	// HTTPClient is used for all requests. If nil, a client with Timeout is
	// created.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to one renterd node.
type Client struct {
	baseURL    string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the config and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	parsed, err := url.Parse(config.Address)
	if err != nil {
		return nil, fmt.Errorf("renterd: invalid address %q: %w", config.Address, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("renterd: address %q must be http or https", config.Address)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.Address, "/"),
		password:   config.Password,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Contracts lists the renter's active contracts.
func (c *Client) Contracts(ctx context.Context) ([]Contract, error) {
	var contracts []Contract
	if err := c.get(ctx, "/bus/contracts", nil, &contracts); err != nil {
		return nil, fmt.Errorf("renterd: list contracts: %w", err)
	}
	return contracts, nil
}

// MetricsQuery selects contract metrics. Empty ContractID means every
// contract.
type MetricsQuery struct {
	Start      time.Time
	Interval   time.Duration
	N          int
	ContractID string
}

// ContractMetrics returns periodic per-contract metric samples.
func (c *Client) ContractMetrics(ctx context.Context, q MetricsQuery) ([]ContractMetric, error) {
	query := url.Values{}
	query.Set("start", q.Start.UTC().Format(time.RFC3339))
	query.Set("interval", strconv.FormatInt(q.Interval.Milliseconds(), 10))
	query.Set("n", strconv.Itoa(q.N))
	if q.ContractID != "" {
		query.Set("contractID", q.ContractID)
	}

	var metrics []ContractMetric
	if err := c.get(ctx, "/bus/metric/contract", query, &metrics); err != nil {
		return nil, fmt.Errorf("renterd: contract metrics: %w", err)
	}
	return metrics, nil
}

// State returns the bus state, including the daemon's explorer settings.
func (c *Client) State(ctx context.Context) (*BusState, error) {
	var state BusState
	if err := c.get(ctx, "/bus/state", nil, &state); err != nil {
		return nil, fmt.Errorf("renterd: bus state: %w", err)
	}
	return &state, nil
}

// Ping checks that the node is reachable and the password is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.State(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.password != "" {
		request.SetBasicAuth("", c.password)
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("renterd request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"duration", time.Since(start),
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}
	return nil, &APIError{
		StatusCode: response.StatusCode,
		Method:     method,
		Path:       path,
		Message:    strings.TrimSpace(string(responseBody)),
	}
}

// APIError is a non-2xx response. renterd returns plain-text error bodies.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("renterd: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("renterd: %s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from renterd.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}
