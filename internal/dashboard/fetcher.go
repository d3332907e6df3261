package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/housingdash/internal/metrics"
	"github.com/seenimoa/housingdash/internal/provider"
	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

// maxErrorBody bounds how much of a non-2xx body is read for its message.
const maxErrorBody = 64 << 10

var requiredParams = []string{provider.ParamObservationStart, provider.ParamFrequency}

// KeyFunc supplies an API key to forward with every series request.
type KeyFunc func(ctx context.Context) (string, error)

// Options configures a Fetcher.
type Options struct {
	// SeriesURL is the proxy series endpoint; the series code is appended
	// as the last path segment.
	SeriesURL string
	// HealthURL is the proxy liveness endpoint.
	HealthURL string
	// APIKey, when set, is called once per FetchAll and its key sent as the
	// api_key query parameter. Leave it nil when SeriesURL is the proxy,
	// which injects the key itself.
	APIKey KeyFunc

	ObservationWindowYears int
	Frequency              string

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Fetcher retrieves the dashboard series from the proxy.
type Fetcher struct {
	seriesURL string
	healthURL string
	apiKey    KeyFunc
	years     int
	frequency string
	http      *http.Client
	log       *zap.Logger
}

// NewFetcher creates a Fetcher. Requests carry no timeout of their own;
// bound them with the context passed to Probe and FetchAll.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		seriesURL: strings.TrimRight(opts.SeriesURL, "/"),
		healthURL: opts.HealthURL,
		apiKey:    opts.APIKey,
		years:     opts.ObservationWindowYears,
		frequency: opts.Frequency,
		http:      opts.HTTPClient,
		log:       opts.Logger,
	}
	if f.years <= 0 {
		f.years = 5
	}
	if f.frequency == "" {
		f.frequency = provider.FrequencyMonthly
	}
	if f.http == nil {
		f.http = &http.Client{}
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	return f
}

type healthBody struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Probe checks that the proxy is alive. It requires a 2xx response whose
// body is valid JSON. Any failure wraps ErrBackendUnreachable.
func (f *Fetcher) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.healthURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health status %d", ErrBackendUnreachable, resp.StatusCode)
	}
	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: decode health: %w", ErrBackendUnreachable, err)
	}
	f.log.Debug("proxy healthy", zap.String("status", body.Status), zap.String("timestamp", body.Timestamp))
	return nil
}

// Params returns the query shared by every series request: monthly
// observations starting on the first of the month ObservationWindowYears
// before now.
func (f *Fetcher) Params(now time.Time) provider.QueryParams {
	return provider.QueryParams{
		provider.ParamObservationStart: utils.ObservationStart(now, f.years).Format(models.DateLayout),
		provider.ParamFrequency:        f.frequency,
	}
}

// FetchAll requests every series concurrently and waits for all of them to
// settle. It returns one Result per metric in display order; a failed
// series is reported in its Result and never aborts the others. An error is
// returned only when no request can be issued at all.
func (f *Fetcher) FetchAll(ctx context.Context, params provider.QueryParams) ([]Result, error) {
	if _, err := url.ParseRequestURI(f.seriesURL); err != nil {
		return nil, fmt.Errorf("series endpoint %q: %w", f.seriesURL, err)
	}
	if err := provider.ValidateParams(params, requiredParams); err != nil {
		return nil, err
	}

	query := params.Clone()
	if f.apiKey != nil {
		key, err := f.apiKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve api key: %w", err)
		}
		query[provider.ParamAPIKey] = key
	}
	encoded := query.Encode()

	results := make([]Result, len(catalog))
	var g errgroup.Group
	for i, info := range catalog {
		g.Go(func() error {
			results[i] = f.fetch(ctx, info, encoded)
			metrics.ObserveSeriesFetch(string(info.Metric), results[i].Outcome())
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Fetch requests a single metric's series.
func (f *Fetcher) Fetch(ctx context.Context, m models.Metric, params provider.QueryParams) (Result, error) {
	info, err := Lookup(m)
	if err != nil {
		return Result{}, err
	}
	return f.fetch(ctx, info, params.Encode()), nil
}

func (f *Fetcher) fetch(ctx context.Context, info SeriesInfo, query string) Result {
	res := Result{Metric: info.Metric, Series: info.Code}
	fail := func(kind ErrorKind, status int, msg string, err error) Result {
		res.Err = &FetchError{Metric: info.Metric, Series: info.Code, Kind: kind, Status: status, Message: msg, Err: err}
		f.log.Warn("series fetch failed",
			zap.String("metric", string(info.Metric)),
			zap.String("series", info.Code),
			zap.String("kind", string(kind)),
			zap.Int("status", status),
			zap.String("message", msg),
		)
		return res
	}

	endpoint := f.seriesURL + "/" + url.PathEscape(info.Code)
	if query != "" {
		endpoint += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(KindNetwork, 0, err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		return fail(KindNetwork, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(KindStatus, resp.StatusCode, proxyMessage(resp.StatusCode, body), nil)
	}

	var payload models.ObservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fail(KindDecode, resp.StatusCode, err.Error(), err)
	}
	res.Payload = &payload

	f.log.Debug("series fetched",
		zap.String("metric", string(info.Metric)),
		zap.String("series", info.Code),
		zap.Int("observations", len(payload.Observations)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// proxyMessage extracts the message of a proxy error envelope, falling back
// to the status text.
func proxyMessage(status int, body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Message != "":
			return env.Message
		case env.Error != "":
			return env.Error
		}
	}
	return http.StatusText(status)
}

// IsUnreachable reports whether err came from a failed health probe.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrBackendUnreachable)
}
