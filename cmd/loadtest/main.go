package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// target is one kind of request the workers rotate through.
type target struct {
	name  string
	build func(base, term string) string
	terms []string
}

var targets = []target{
	{
		name: "chatbot",
		build: func(base, term string) string {
			return base + "/chatbot?query=" + url.QueryEscape(term)
		},
		terms: []string{
			"funny movies",
			"something scary",
			"horror please",
			"documentaries about nature",
			"romantic comedies",
			"kids shows",
			"I want a thriller",
			"stand-up comedy tonight",
			"international dramas",
			"anime",
		},
	},
	{
		name: "by_category",
		build: func(base, term string) string {
			return base + "/movies/by_category/?category=" + url.QueryEscape(term)
		},
		terms: []string{"Dramas", "Comedies", "Horror Movies", "Documentaries", "Kids' TV"},
	},
	{
		name: "find",
		build: func(base, term string) string {
			return base + "/movies/" + url.PathEscape(term)
		},
		terms: []string{"s1", "s2", "s3", "s10", "s100"},
	},
}

type Stats struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64

	mu          sync.Mutex
	latencies   map[string][]time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make(map[string][]time.Duration),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) RecordRequest(route string, duration time.Duration, statusCode int, cacheStatus string, err error) {
	s.totalRequests.Add(1)
	if err != nil {
		s.errorCount.Add(1)
		return
	}
	// 404s from find on unknown ids are expected answers, not failures.
	if statusCode < 500 {
		s.successCount.Add(1)
	} else {
		s.errorCount.Add(1)
	}
	switch cacheStatus {
	case "hit":
		s.cacheHits.Add(1)
	case "miss":
		s.cacheMisses.Add(1)
	}

	s.mu.Lock()
	s.latencies[route] = append(s.latencies[route], duration)
	s.statusCodes[statusCode]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "base URL of the movie catalog service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	routes := flag.String("routes", "chatbot,by_category,find", "comma-separated routes to exercise")
	flag.Parse()

	selected, err := selectTargets(*routes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Println("=== Movie Catalog Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Routes:      %s\n", *routes)
	fmt.Println()

	stats := runLoadTest(strings.TrimRight(*baseURL, "/"), selected, *concurrency, *duration)
	if !printReport(stats, *duration) {
		os.Exit(1)
	}
}

func selectTargets(routes string) ([]target, error) {
	var out []target
	for _, name := range strings.Split(routes, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, t := range targets {
			if t.name == name {
				out = append(out, t)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown route %q", name)
		}
	}
	return out, nil
}

func runLoadTest(base string, selected []target, concurrency int, duration time.Duration) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := workerID; ctx.Err() == nil; i++ {
				t := selected[i%len(selected)]
				term := t.terms[(i/len(selected))%len(t.terms)]

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.build(base, term), nil)
				if err != nil {
					stats.RecordRequest(t.name, 0, 0, "", err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.RecordRequest(t.name, elapsed, 0, "", err)
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.RecordRequest(t.name, elapsed, resp.StatusCode, resp.Header.Get("X-Cache"), nil)
			}
		}(w)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

// printReport writes the summary and reports whether any request completed.
func printReport(stats *Stats, duration time.Duration) bool {
	total := stats.totalRequests.Load()
	errs := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", stats.successCount.Load())
	fmt.Printf("Errors:          %d\n", errs)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(errs)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}
	if hits, misses := stats.cacheHits.Load(), stats.cacheMisses.Load(); hits+misses > 0 {
		fmt.Printf("Cache Hit Rate:  %.1f%% (%d/%d)\n", float64(hits)/float64(hits+misses)*100, hits, hits+misses)
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()

	routes := make([]string, 0, len(stats.latencies))
	for r := range stats.latencies {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	for _, route := range routes {
		latencies := stats.latencies[route]
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sumSquared float64
		for _, l := range latencies {
			diff := float64(l - avg)
			sumSquared += diff * diff
		}

		fmt.Println()
		fmt.Printf("=== Latency: %s (%d requests) ===\n", route, len(latencies))
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", time.Duration(math.Sqrt(sumSquared/float64(len(latencies)))))
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, stats.statusCodes[code])
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		return false
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
