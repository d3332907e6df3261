// Package fred implements the upstream side of the dashboard proxy: a thin
// client for the FRED (Federal Reserve Economic Data) observations API that
// injects the secret API key server-side.
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Docs: https://fred.stlouisfed.org/docs/api/fred/
package fred

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/housingdash/internal/provider"
)

const (
	// DefaultBaseURL is the public FRED API root.
	DefaultBaseURL = "https://api.stlouisfed.org/fred"

	fileTypeJSON = "json"
)

var (
	// ErrNoResponse is returned when the request was sent but no response
	// was received (transport failure, timeout, cancelled context).
	ErrNoResponse = errors.New("no response received from FRED API")

	// ErrMissingAPIKey is returned when the client has no API key to inject.
	ErrMissingAPIKey = errors.New("FRED API key is not configured")
)

// APIError is returned when FRED answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FRED API error (status %d): %s", e.Status, e.Message)
}

// Client calls the FRED observations endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout sets an overall timeout on upstream calls. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New creates a client for the FRED API rooted at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIKey returns the stored API key.
func (c *Client) APIKey() string {
	return c.apiKey
}

// Observations fetches the observations of seriesID, forwarding query and
// injecting api_key and file_type=json. The injected values and the series
// id always override anything in query. On success the upstream body is
// returned unmodified.
func (c *Client) Observations(ctx context.Context, seriesID string, query url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if seriesID == "" {
		return nil, &provider.ErrMissingParam{Param: provider.ParamSeriesID}
	}

	endpoint := c.observationsURL(seriesID, query)
	start := time.Now()
	data, err := c.get(ctx, endpoint)
	c.log.Debug("fred request",
		zap.String("series", seriesID),
		zap.String("url", redact(endpoint)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return nil, fmt.Errorf("fred series %s: %w", seriesID, err)
	}
	return data, nil
}

// Ping checks connectivity and credentials against a known series.
func (c *Client) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	q := url.Values{}
	q.Set(provider.ParamSeriesID, "GDP")
	q.Set(provider.ParamAPIKey, c.apiKey)
	q.Set(provider.ParamFileType, fileTypeJSON)
	if _, err := c.get(ctx, c.baseURL+"/series?"+q.Encode()); err != nil {
		return fmt.Errorf("fred ping: %w", err)
	}
	return nil
}

func (c *Client) observationsURL(seriesID string, query url.Values) string {
	q := make(url.Values, len(query)+3)
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(provider.ParamSeriesID, seriesID)
	q.Set(provider.ParamAPIKey, c.apiKey)
	q.Set(provider.ParamFileType, fileTypeJSON)
	return c.baseURL + "/series/observations?" + q.Encode()
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNoResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	return data, nil
}

// redact hides the api_key value so URLs can be logged.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has(provider.ParamAPIKey) {
		q.Set(provider.ParamAPIKey, "***")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
