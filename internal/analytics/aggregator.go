package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/kafka"
)

const (
	latencyWindow   = 10000
	maxTrackedTerms = 10000
	topN            = 10
)

// AggregatedStats is the snapshot served by the analytics endpoint.
type AggregatedStats struct {
	TotalQueries      int64               `json:"total_queries"`
	ByType            map[EventType]int64 `json:"by_type"`
	CacheHits         int64               `json:"cache_hits"`
	CacheMisses       int64               `json:"cache_misses"`
	ZeroResultCount   int64               `json:"zero_result_count"`
	AvgLatencyMs      float64             `json:"avg_latency_ms"`
	P50LatencyMs      float64             `json:"p50_latency_ms"`
	P95LatencyMs      float64             `json:"p95_latency_ms"`
	P99LatencyMs      float64             `json:"p99_latency_ms"`
	TopQueries        []TermCount         `json:"top_queries"`
	TopKeywords       []TermCount         `json:"top_keywords"`
	ZeroResultQueries []TermCount         `json:"zero_result_queries"`
	QueriesPerMinute  float64             `json:"queries_per_minute"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator folds query events into running statistics. Latency percentiles
// cover the most recent events only; per-term counters stop admitting new
// terms once full.
type Aggregator struct {
	mu          sync.RWMutex
	total       int64
	byType      map[EventType]int64
	cacheHits   int64
	cacheMisses int64
	zeroResults int64
	latencies   []float64
	next        int
	queries     map[string]int64
	keywords    map[string]int64
	zeroQueries map[string]int64
	startTime   time.Time
	// sinceStart counts queries recorded by this process; restored totals
	// are excluded so the per-minute rate reflects current uptime only.
	sinceStart int64

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byType:      make(map[EventType]int64),
		latencies:   make([]float64, 0, latencyWindow),
		queries:     make(map[string]int64),
		keywords:    make(map[string]int64),
		zeroQueries: make(map[string]int64),
		startTime:   time.Now(),
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage is the Kafka consumer callback. Undecodable messages are
// logged and skipped so they do not block the partition.
func (a *Aggregator) HandleMessage(ctx context.Context, key, value []byte) error {
	event, err := kafka.DecodeJSON[QueryEvent](value)
	if err != nil {
		a.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
		return nil
	}
	a.Record(event)
	return nil
}

// PublishBatch records events directly, which lets the aggregator stand in
// for Kafka when no broker is configured.
func (a *Aggregator) PublishBatch(ctx context.Context, events []kafka.Event) error {
	for _, e := range events {
		switch v := e.Value.(type) {
		case QueryEvent:
			a.Record(v)
		case *QueryEvent:
			a.Record(*v)
		default:
			a.logger.Warn("ignoring unexpected analytics event", "key", e.Key)
		}
	}
	return nil
}

// Record folds a single event into the statistics.
func (a *Aggregator) Record(event QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.sinceStart++
	a.byType[event.Type]++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}

	bump(a.queries, event.Query)
	for _, kw := range event.Keywords {
		bump(a.keywords, kw)
	}
	if event.Results == 0 {
		a.zeroResults++
		bump(a.zeroQueries, event.Query)
	}
}

func bump(counts map[string]int64, term string) {
	if term == "" {
		return
	}
	if _, ok := counts[term]; !ok && len(counts) >= maxTrackedTerms {
		return
	}
	counts[term]++
}

// Restore seeds the counters from a persisted snapshot so totals survive a
// restart. Percentiles, per-term counts and the per-minute rate start fresh.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total += stats.TotalQueries
	for t, n := range stats.ByType {
		a.byType[t] += n
	}
	a.cacheHits += stats.CacheHits
	a.cacheMisses += stats.CacheMisses
	a.zeroResults += stats.ZeroResultCount
}

func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(topN)
}

// StatsTop is Stats with n entries in each top list.
func (a *Aggregator) StatsTop(n int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:    a.total,
		ByType:          make(map[EventType]int64, len(a.byType)),
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
	}
	for t, n := range a.byType {
		stats.ByType[t] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)

		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = top(a.queries, n)
	stats.TopKeywords = top(a.keywords, n)
	stats.ZeroResultQueries = top(a.zeroQueries, n)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(a.sinceStart) / elapsed
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// top returns the n most frequent terms, ties broken alphabetically.
func top(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermCount{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
