// Package handler serves the movie catalog and the chatbot over HTTP.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/cache"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/matcher"
	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/middleware"
)

const (
	MessageFound    = "Here are some related movies."
	MessageNotFound = "No movies found in that category."

	// CacheStatusHeader reports hit, miss or disabled on /chatbot responses.
	CacheStatusHeader = "X-Cache"

	homePage = `<html><body><h1>Welcome to the Movie Catalog API</h1>` +
		`<p>Try <a href="/movies">/movies</a> or <a href="/chatbot?query=funny">/chatbot?query=funny</a>.</p>` +
		`</body></html>`
)

// Catalog is the read-only movie store the handlers serve.
type Catalog interface {
	matcher.Catalog
	Len() int
	All() []catalog.Movie
	Find(id string) (catalog.Movie, error)
	FilterByCategory(category string) []catalog.Movie
}

type QueryMatcher interface {
	Match(query string, c matcher.Catalog) matcher.Result
	Options() matcher.Options
}

// Tracker receives one event per answered query.
type Tracker interface {
	Track(event analytics.QueryEvent)
}

// ChatbotResponse is the body of GET /chatbot.
type ChatbotResponse struct {
	Message  string          `json:"message"`
	Movies   []catalog.Movie `json:"movies"`
	Keywords []string        `json:"keywords"`
}

// Handler serves every catalog route. The response cache, the tracker and
// the metrics are optional and may be nil.
type Handler struct {
	catalog Catalog
	matcher QueryMatcher
	cache   *cache.ResponseCache
	tracker Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Catalog, m QueryMatcher, responseCache *cache.ResponseCache, tracker Tracker, met *metrics.Metrics) *Handler {
	return &Handler{
		catalog: store,
		matcher: m,
		cache:   responseCache,
		tracker: tracker,
		metrics: met,
		logger:  slog.Default().With("component", "catalog-handler"),
	}
}

// Register mounts the catalog routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /movies", h.Movies)
	mux.HandleFunc("GET /movies/{id}", h.MovieByID)
	mux.HandleFunc("GET /movies/by_category", h.ByCategory)
	mux.HandleFunc("GET /movies/by_category/{$}", h.ByCategory)
	mux.HandleFunc("GET /chatbot", h.Chatbot)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, homePage)
}

// Movies returns the whole catalog in load order.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	if h.catalog.Len() == 0 {
		h.writeError(w, http.StatusInternalServerError, "no movie data available")
		return
	}
	h.writeJSON(w, http.StatusOK, h.catalog.All())
}

func (h *Handler) MovieByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.PathValue("id")
	movie, err := h.catalog.Find(id)
	results := 1
	if err != nil {
		results = 0
	}
	h.track(r, analytics.QueryEvent{Type: analytics.EventFind, Query: id, Results: results}, start)
	if err != nil {
		logger.FromContext(r.Context()).Debug("movie lookup missed", "id", id)
		h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

// ByCategory returns the movies whose category contains the category
// parameter, case-insensitively. An empty value matches every movie.
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	values, ok := r.URL.Query()["category"]
	if !ok {
		h.writeError(w, http.StatusBadRequest, "query parameter 'category' is required")
		return
	}
	category := values[0]
	movies := h.catalog.FilterByCategory(category)
	h.track(r, analytics.QueryEvent{Type: analytics.EventCategory, Query: category, Results: len(movies)}, start)
	h.writeJSON(w, http.StatusOK, movies)
}

// Chatbot expands the query with synonyms and returns the movies whose
// category mentions any resulting keyword.
func (h *Handler) Chatbot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	values, ok := r.URL.Query()["query"]
	if !ok {
		h.observeQuery(metrics.ResultError, "", 0, 0, start)
		h.writeError(w, http.StatusBadRequest, "query parameter 'query' is required")
		return
	}
	query := values[0]

	compute := func() (matcher.Result, error) {
		return h.matcher.Match(query, h.catalog), nil
	}
	var (
		result   matcher.Result
		cacheHit bool
		err      error
	)
	cacheStatus := "disabled"
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, h.matcher.Options(), compute)
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("chatbot query failed", "query", query, "error", err)
		h.observeQuery(metrics.ResultError, cacheStatus, 0, 0, start)
		h.writeError(w, http.StatusInternalServerError, "chatbot query failed")
		return
	}

	resp := ChatbotResponse{
		Message:  MessageNotFound,
		Movies:   result.Movies,
		Keywords: result.Keywords,
	}
	resultType := metrics.ResultNoMatch
	if len(result.Movies) > 0 {
		resp.Message = MessageFound
		resultType = metrics.ResultMatch
	}
	if resp.Movies == nil {
		resp.Movies = []catalog.Movie{}
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}

	h.observeQuery(resultType, cacheStatus, len(resp.Movies), len(resp.Keywords), start)
	h.track(r, analytics.QueryEvent{
		Type:     analytics.EventChatbot,
		Query:    query,
		Keywords: resp.Keywords,
		Results:  len(resp.Movies),
		CacheHit: cacheHit,
	}, start)
	log.Info("chatbot query answered",
		"query", query,
		"keywords", len(resp.Keywords),
		"movies", len(resp.Movies),
		"cache", cacheStatus,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	w.Header().Set(CacheStatusHeader, cacheStatus)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) track(r *http.Request, event analytics.QueryEvent, start time.Time) {
	if h.tracker == nil {
		return
	}
	event.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
	event.Timestamp = time.Now().UTC()
	event.RequestID = middleware.GetRequestID(r.Context())
	h.tracker.Track(event)
}

func (h *Handler) observeQuery(resultType, cacheStatus string, movies, keywords int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ChatbotQueriesTotal.WithLabelValues(resultType).Inc()
	if resultType == metrics.ResultError {
		return
	}
	h.metrics.QueryLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.QueryResultsCount.Observe(float64(movies))
	h.metrics.QueryKeywordsCount.Observe(float64(keywords))
	switch cacheStatus {
	case "hit":
		h.metrics.CacheHitsTotal.Inc()
	case "miss":
		h.metrics.CacheMissesTotal.Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
