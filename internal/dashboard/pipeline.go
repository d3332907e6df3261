package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seenimoa/housingdash/internal/metrics"
	"github.com/seenimoa/housingdash/internal/provider"
	"github.com/seenimoa/housingdash/pkg/models"
	"github.com/seenimoa/housingdash/pkg/utils"
)

// State is the lifecycle state of a dashboard load.
type State string

const (
	StateLoading             State = "loading"
	StateSuccess             State = "success"
	StateSuccessWithFallback State = "success_with_fallback"
)

// Source tells whether a snapshot holds live or synthetic data.
type Source string

const (
	SourceLive      Source = "live"
	SourceSynthetic Source = "synthetic"
)

// Reason classifies why a snapshot fell back to synthetic data.
type Reason string

const (
	ReasonBackendUnreachable Reason = "backend_unreachable"
	ReasonNoData             Reason = "no_data"
	ReasonFetchFailed        Reason = "fetch_failed"
)

// User-facing messages for each fallback reason.
const (
	MessageBackendUnreachable = "Proxy server is not running or not responding. Please ensure the backend server is started."
	MessageNoData             = "No valid data received from FRED API"
	MessageFetchFailed        = "Failed to load economic data. Using mock data instead."
)

// MetricCard is a derived metric with its display metadata.
type MetricCard struct {
	models.DerivedMetric
	Series string `json:"series"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Trend  string `json:"trend"`
	Latest string `json:"latest"`
}

// Snapshot is the terminal outcome of one pipeline run. Records is never
// empty and Metrics always has one card per metric.
type Snapshot struct {
	RunID        string                  `json:"runId"`
	State        State                   `json:"state"`
	Source       Source                  `json:"source"`
	Reason       Reason                  `json:"reason,omitempty"`
	Error        string                  `json:"error,omitempty"`
	Records      []models.CombinedRecord `json:"records"`
	Metrics      []MetricCard            `json:"metrics"`
	FailedSeries []models.Metric         `json:"failedSeries,omitempty"`
	GeneratedAt  time.Time               `json:"generatedAt"`

	// Err is the underlying cause of a fallback.
	Err error `json:"-"`
}

// Synthetic reports whether the snapshot holds generated data.
func (s Snapshot) Synthetic() bool {
	return s.Source == SourceSynthetic
}

// Card returns the card for metric m.
func (s Snapshot) Card(m models.Metric) (MetricCard, bool) {
	for _, c := range s.Metrics {
		if c.Metric == m {
			return c, true
		}
	}
	return MetricCard{}, false
}

// SeriesSource is what the pipeline needs from a fetcher.
type SeriesSource interface {
	Probe(ctx context.Context) error
	Params(now time.Time) provider.QueryParams
	FetchAll(ctx context.Context, params provider.QueryParams) ([]Result, error)
}

// Runner produces a snapshot.
type Runner interface {
	Run(ctx context.Context) Snapshot
}

// Pipeline runs probe, fetch, normalize, join and derive, falling back to
// synthetic data when live data cannot be produced.
type Pipeline struct {
	source SeriesSource
	log    *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithClock sets the clock used for the observation window and the
// synthetic dataset.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithRand sets the random source of the synthetic dataset.
func WithRand(rng *rand.Rand) PipelineOption {
	return func(p *Pipeline) { p.rng = rng }
}

// WithLogger sets the pipeline logger.
func WithLogger(log *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline creates a pipeline reading from source.
func NewPipeline(source SeriesSource, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source: source,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one load. It never fails: every error path ends in a
// synthetic snapshot whose Error describes the cause. Partial series
// failures are listed in FailedSeries of a live snapshot.
func (p *Pipeline) Run(ctx context.Context) Snapshot {
	now := p.now()
	start := time.Now()

	snap := p.run(ctx, now)
	snap.RunID = uuid.NewString()
	metrics.ObservePipeline(string(snap.State), string(snap.Source), len(snap.Records))

	fields := []zap.Field{
		zap.String("run_id", snap.RunID),
		zap.String("state", string(snap.State)),
		zap.String("source", string(snap.Source)),
		zap.Int("records", len(snap.Records)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if snap.Err != nil {
		p.log.Error("dashboard load fell back to synthetic data", append(fields, zap.Error(snap.Err))...)
	} else {
		p.log.Info("dashboard loaded", append(fields, zap.Int("failed_series", len(snap.FailedSeries)))...)
	}
	return snap
}

func (p *Pipeline) run(ctx context.Context, now time.Time) Snapshot {
	if err := p.source.Probe(ctx); err != nil {
		return p.fallback(now, err)
	}

	results, err := p.source.FetchAll(ctx, p.source.Params(now))
	if err != nil {
		return p.fallback(now, fmt.Errorf("fetch series: %w", err))
	}

	series := make(map[models.Metric][]models.ProcessedPoint, len(results))
	var failed []models.Metric
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r.Metric)
		}
		series[r.Metric] = Normalize(r.Observations())
	}

	records, err := Join(series)
	if err != nil {
		return p.fallback(now, err)
	}

	return Snapshot{
		State:        StateSuccess,
		Source:       SourceLive,
		Records:      records,
		Metrics:      cards(records),
		FailedSeries: failed,
		GeneratedAt:  now.UTC(),
	}
}

func (p *Pipeline) fallback(now time.Time, cause error) Snapshot {
	p.mu.Lock()
	records := GenerateFallback(now, p.rng)
	p.mu.Unlock()

	reason, msg := classify(cause)
	return Snapshot{
		State:       StateSuccessWithFallback,
		Source:      SourceSynthetic,
		Reason:      reason,
		Error:       msg,
		Records:     records,
		Metrics:     cards(records),
		GeneratedAt: now.UTC(),
		Err:         cause,
	}
}

func classify(err error) (Reason, string) {
	switch {
	case errors.Is(err, ErrBackendUnreachable):
		return ReasonBackendUnreachable, MessageBackendUnreachable
	case errors.Is(err, ErrNoData):
		return ReasonNoData, MessageNoData
	default:
		return ReasonFetchFailed, MessageFetchFailed
	}
}

func cards(records []models.CombinedRecord) []MetricCard {
	out := make([]MetricCard, 0, len(catalog))
	for _, info := range catalog {
		d := Derive(records, info.Metric)
		out = append(out, MetricCard{
			DerivedMetric: d,
			Series:        info.Code,
			Name:          info.Name,
			Color:         info.Color,
			Trend:         d.TrendLabel(),
			Latest:        utils.FormatValue(d.LatestValue),
		})
	}
	return out
}
