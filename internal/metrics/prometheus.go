// Package metrics exposes Prometheus collectors for the proxy and the
// dashboard pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Proxy metrics
	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housingdash_proxy_requests_total",
			Help: "Total number of proxied series requests",
		},
		[]string{"series", "code"}, // code: HTTP status returned to the client
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "housingdash_upstream_latency_seconds",
			Help:    "Latency of upstream FRED calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"series"},
	)

	// Pipeline metrics
	SeriesFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housingdash_series_fetches_total",
			Help: "Total number of dashboard series fetches by outcome",
		},
		[]string{"metric", "outcome"}, // outcome: ok|network|status|decode
	)

	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housingdash_pipeline_runs_total",
			Help: "Total number of dashboard pipeline runs by terminal state",
		},
		[]string{"state", "source"},
	)

	CombinedRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "housingdash_combined_records",
			Help: "Number of records in the most recent combined table",
		},
	)
)

// OtherSeries is the series label of proxied requests for codes outside
// the dashboard catalogue.
const OtherSeries = "other"

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(ProxyRequests)
		prometheus.MustRegister(UpstreamLatency)
		prometheus.MustRegister(SeriesFetches)
		prometheus.MustRegister(PipelineRuns)
		prometheus.MustRegister(CombinedRecords)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveProxy records one proxied request.
func ObserveProxy(series string, code int, upstream time.Duration) {
	ProxyRequests.WithLabelValues(series, strconv.Itoa(code)).Inc()
	UpstreamLatency.WithLabelValues(series).Observe(upstream.Seconds())
}

// ObserveSeriesFetch records the outcome of one dashboard series fetch.
func ObserveSeriesFetch(metric, outcome string) {
	SeriesFetches.WithLabelValues(metric, outcome).Inc()
}

// ObservePipeline records a finished pipeline run.
func ObservePipeline(state, source string, records int) {
	PipelineRuns.WithLabelValues(state, source).Inc()
	CombinedRecords.Set(float64(records))
}
