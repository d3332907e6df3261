package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/seenimoa/housingdash/internal/provider"
	"github.com/seenimoa/housingdash/pkg/models"
)

// fakeProxy serves /health and /api/fred/{code}. Series without a body in
// bodies answer with an empty observation list.
type fakeProxy struct {
	mu      sync.Mutex
	queries map[string]url.Values

	healthStatus int
	healthBody   string
	bodies       map[string]string
	statuses     map[string]int
}

func (p *fakeProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		status := p.healthStatus
		if status == 0 {
			status = http.StatusOK
		}
		body := p.healthBody
		if body == "" {
			body = `{"status":"ok","timestamp":"2026-10-14T00:00:00Z"}`
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
		return
	}

	code, ok := strings.CutPrefix(r.URL.Path, "/api/fred/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	p.mu.Lock()
	if p.queries == nil {
		p.queries = make(map[string]url.Values)
	}
	p.queries[code] = r.URL.Query()
	p.mu.Unlock()

	if status, ok := p.statuses[code]; ok {
		w.WriteHeader(status)
	}
	body, ok := p.bodies[code]
	if !ok {
		body = `{"observations":[]}`
	}
	fmt.Fprint(w, body)
}

func (p *fakeProxy) query(code string) (url.Values, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.queries[code]
	return q, ok
}

func newTestFetcher(t *testing.T, p *fakeProxy, opts ...func(*Options)) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	o := Options{
		SeriesURL:              srv.URL + "/api/fred",
		HealthURL:              srv.URL + "/health",
		ObservationWindowYears: 5,
		Frequency:              "m",
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewFetcher(o), srv
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"healthy", http.StatusOK, "", false},
		{"server error", http.StatusInternalServerError, `{"status":"down"}`, true},
		{"not json", http.StatusOK, "<html>ok</html>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFetcher(t, &fakeProxy{healthStatus: tt.status, healthBody: tt.body})
			err := f.Probe(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsUnreachable(err) {
				t.Errorf("error should wrap ErrBackendUnreachable: %v", err)
			}
		})
	}
}

func TestProbeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	f := NewFetcher(Options{SeriesURL: srv.URL + "/api/fred", HealthURL: srv.URL + "/health"})
	if err := f.Probe(context.Background()); !errors.Is(err, ErrBackendUnreachable) {
		t.Errorf("got %v, want ErrBackendUnreachable", err)
	}
}

func TestParams(t *testing.T) {
	f := NewFetcher(Options{ObservationWindowYears: 5, Frequency: "m"})
	got := f.Params(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC))
	if got[provider.ParamObservationStart] != "2021-10-01" {
		t.Errorf("observation_start: got %q, want 2021-10-01", got[provider.ParamObservationStart])
	}
	if got[provider.ParamFrequency] != "m" {
		t.Errorf("frequency: got %q, want m", got[provider.ParamFrequency])
	}
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher(Options{SeriesURL: "http://localhost:4000/api/fred/"})
	if f.seriesURL != "http://localhost:4000/api/fred" {
		t.Errorf("seriesURL: got %q", f.seriesURL)
	}
	if f.years != 5 || f.frequency != "m" {
		t.Errorf("defaults: years=%d frequency=%q", f.years, f.frequency)
	}
	if f.http.Timeout != 0 {
		t.Errorf("fetcher should not impose a timeout, got %v", f.http.Timeout)
	}
}

func TestFetchAllSendsQueryToEverySeries(t *testing.T) {
	p := &fakeProxy{}
	f, _ := newTestFetcher(t, p)

	params := f.Params(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	results, err := f.FetchAll(context.Background(), params)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("len: got %d, want 5", len(results))
	}

	for i, info := range Series() {
		if results[i].Metric != info.Metric || results[i].Series != info.Code {
			t.Errorf("result %d: got %s/%s, want %s/%s", i, results[i].Metric, results[i].Series, info.Metric, info.Code)
		}
		q, ok := p.query(info.Code)
		if !ok {
			t.Errorf("%s was not requested", info.Code)
			continue
		}
		if q.Get("observation_start") != "2021-10-01" || q.Get("frequency") != "m" {
			t.Errorf("%s query: got %v", info.Code, q)
		}
		if q.Has("api_key") {
			t.Errorf("%s: api_key sent without a key provider", info.Code)
		}
	}
}

func TestFetchAllForwardsAPIKey(t *testing.T) {
	p := &fakeProxy{}
	f, _ := newTestFetcher(t, p, func(o *Options) {
		o.APIKey = func(context.Context) (string, error) { return "client-key", nil }
	})

	if _, err := f.FetchAll(context.Background(), f.Params(time.Now())); err != nil {
		t.Fatal(err)
	}
	q, _ := p.query("MSACSR")
	if got := q.Get("api_key"); got != "client-key" {
		t.Errorf("api_key: got %q", got)
	}
}

func TestFetchAllKeyProviderError(t *testing.T) {
	f, _ := newTestFetcher(t, &fakeProxy{}, func(o *Options) {
		o.APIKey = func(context.Context) (string, error) { return "", errors.New("vault sealed") }
	})
	if _, err := f.FetchAll(context.Background(), f.Params(time.Now())); err == nil {
		t.Error("expected error from key provider")
	}
}

func TestFetchAllRejectsBadInput(t *testing.T) {
	t.Run("bad endpoint", func(t *testing.T) {
		f := NewFetcher(Options{SeriesURL: "::not a url"})
		if _, err := f.FetchAll(context.Background(), f.Params(time.Now())); err == nil {
			t.Error("expected error for invalid endpoint")
		}
	})
	t.Run("missing params", func(t *testing.T) {
		f := NewFetcher(Options{SeriesURL: "http://localhost:4000/api/fred"})
		_, err := f.FetchAll(context.Background(), provider.QueryParams{})
		var missing *provider.ErrMissingParam
		if !errors.As(err, &missing) {
			t.Errorf("got %v, want ErrMissingParam", err)
		}
	})
}

func TestFetchAllSettlesEveryOutcome(t *testing.T) {
	p := &fakeProxy{
		bodies: map[string]string{
			"CSUSHPINSA":   `{"observations":[{"date":"2024-01-01","value":"310.2"}]}`,
			"MSACSR":       `{"error":"FRED API Error","message":"Bad Request.  The series does not exist.","status":400}`,
			"MORTGAGE30US": `{not json`,
			"TLRESCONS":    `{"count":0}`,
		},
		statuses: map[string]int{"MSACSR": http.StatusBadRequest},
	}
	f, _ := newTestFetcher(t, p)

	results, err := f.FetchAll(context.Background(), f.Params(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	byMetric := make(map[models.Metric]Result)
	for _, r := range results {
		byMetric[r.Metric] = r
	}

	if r := byMetric[models.MetricPriceIndex]; !r.OK() || len(r.Observations()) != 1 {
		t.Errorf("priceIndex: got %+v", r)
	}

	inv := byMetric[models.MetricInventory]
	if inv.OK() || inv.Err.Kind != KindStatus || inv.Err.Status != http.StatusBadRequest {
		t.Fatalf("inventory: got %+v", inv.Err)
	}
	if inv.Err.Message != "Bad Request.  The series does not exist." {
		t.Errorf("inventory message: got %q", inv.Err.Message)
	}
	if inv.Observations() != nil {
		t.Error("failed result should have no observations")
	}
	if inv.Outcome() != "status" {
		t.Errorf("outcome: got %q", inv.Outcome())
	}

	if r := byMetric[models.MetricMortgageRate]; r.OK() || r.Err.Kind != KindDecode {
		t.Errorf("mortgageRate: got %+v", r.Err)
	}
	// Missing observations decode to an empty list.
	if r := byMetric[models.MetricConstructionSpend]; !r.OK() || len(r.Observations()) != 0 {
		t.Errorf("constructionSpend: got %+v", r)
	}
	if r := byMetric[models.MetricBankruptcies]; !r.OK() || r.Outcome() != "ok" {
		t.Errorf("bankruptcies: got %+v", r)
	}
}

func TestFetchAllNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	f := NewFetcher(Options{SeriesURL: srv.URL + "/api/fred"})
	results, err := f.FetchAll(context.Background(), f.Params(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.OK() || r.Err.Kind != KindNetwork {
			t.Errorf("%s: got %+v, want network error", r.Metric, r.Err)
		}
		if !strings.Contains(r.Err.Error(), r.Series) {
			t.Errorf("error should name the series: %v", r.Err)
		}
	}
}

func TestFetchSingle(t *testing.T) {
	p := &fakeProxy{bodies: map[string]string{
		"BUSLOANS": `{"observations":[{"date":"2024-03-01","value":"2790.1"}]}`,
	}}
	f, _ := newTestFetcher(t, p)

	r, err := f.Fetch(context.Background(), models.MetricBankruptcies, f.Params(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if !r.OK() || r.Observations()[0].Value != "2790.1" {
		t.Errorf("got %+v", r)
	}

	var unknown *provider.ErrUnknownSeries
	if _, err := f.Fetch(context.Background(), "vacancy", nil); !errors.As(err, &unknown) {
		t.Errorf("got %v, want ErrUnknownSeries", err)
	}
}

func TestProxyMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error":"FRED API Error","message":"Bad API key"}`, "Bad API key"},
		{`{"error":"No Response"}`, "No Response"},
		{`oops`, "Bad Gateway"},
	}
	for _, tt := range tests {
		if got := proxyMessage(http.StatusBadGateway, []byte(tt.body)); got != tt.want {
			t.Errorf("proxyMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
