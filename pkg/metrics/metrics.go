// Package metrics defines the Prometheus collectors used by the movie service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result types for ChatbotQueriesTotal.
const (
	ResultMatch   = "match"
	ResultNoMatch = "no_match"
	ResultError   = "error"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ChatbotQueriesTotal  *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	QueryResultsCount    prometheus.Histogram
	QueryKeywordsCount   prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CatalogMovies        prometheus.Gauge

	reg prometheus.Registerer
}

// New creates all collectors and registers them with reg. A nil reg uses the
// process-wide default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ChatbotQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_queries_total",
				Help: "Total chatbot queries by result type (match, no_match, error).",
			},
			[]string{"result_type"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatbot_query_latency_seconds",
				Help:    "Chatbot query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		QueryResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatbot_query_results_count",
				Help:    "Number of movies returned per chatbot query.",
				Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
			},
		),
		QueryKeywordsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatbot_query_keywords_count",
				Help:    "Size of the expanded keyword set per chatbot query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chatbot_cache_hits_total",
				Help: "Total number of chatbot response cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "chatbot_cache_misses_total",
				Help: "Total number of chatbot response cache misses.",
			},
		),
		CatalogMovies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_movies",
				Help: "Number of movies in the loaded catalog.",
			},
		),
		reg: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ChatbotQueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.QueryKeywordsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CatalogMovies,
	)

	return m
}

// TrackSynonymMemo exports the resolver memo counters read from stats at
// scrape time.
func (m *Metrics) TrackSynonymMemo(stats func() (hits, misses int64)) {
	m.reg.MustRegister(
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "synonym_memo_hits_total",
				Help: "Synonym lookups answered from the memo.",
			},
			func() float64 { h, _ := stats(); return float64(h) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "synonym_memo_misses_total",
				Help: "Synonym lookups that queried the lexicon.",
			},
			func() float64 { _, mi := stats(); return float64(mi) },
		),
	)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
