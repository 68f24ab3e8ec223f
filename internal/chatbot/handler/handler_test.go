package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/cache"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/matcher"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/metrics"
)

type mapLexicon map[string][][]string

func (m mapLexicon) Senses(word string) [][]string { return m[word] }

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	return nil
}

func (s *memStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.data))
	s.data = map[string]string{}
	return n, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.QueryEvent
}

func (t *recordingTracker) Track(e analytics.QueryEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func testStore() *catalog.Store {
	return catalog.NewStore([]catalog.Movie{
		{ID: "s1", Title: "Laugh Track", Year: "2019", Category: "Comedies, Dramas", Rating: "TV-MA"},
		{ID: "s2", Title: "Night Shift", Year: "2020", Category: "Horror Movies", Rating: "R"},
		{ID: "s3", Title: "Deep Blue", Category: "Documentaries"},
	})
}

func testMatcher() *matcher.Matcher {
	lex := mapLexicon{
		"funny":  {{"amusing", "comic", "comedies", "funny"}},
		"scary":  {{"chilling", "horror", "scary"}},
		"sad":    {{"sad", "pitiful"}},
		"boring": {{"boring", "dull"}},
	}
	return matcher.New(tokenizer.Tokenize, lexicon.NewResolver(lex), matcher.Options{DropPunctuation: true})
}

type fixture struct {
	mux     *http.ServeMux
	tracker *recordingTracker
	store   *memStore
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, store Catalog, withCache bool) *fixture {
	t.Helper()
	f := &fixture{
		mux:     http.NewServeMux(),
		tracker: &recordingTracker{},
		reg:     prometheus.NewRegistry(),
	}
	var rc *cache.ResponseCache
	if withCache {
		f.store = &memStore{data: map[string]string{}}
		rc = cache.New(f.store, time.Minute, "test")
	}
	New(store, testMatcher(), rc, f.tracker, metrics.New(f.reg)).Register(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHome(t *testing.T) {
	rec := newFixture(t, testStore(), false).do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>")
}

func TestMovies(t *testing.T) {
	rec := newFixture(t, testStore(), false).do(t, http.MethodGet, "/movies")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, 3)
	assert.Equal(t, "s1", raw[0]["Id"])
	assert.Equal(t, 2019.0, raw[0]["Year"])
	assert.Equal(t, "", raw[2]["Year"])
	assert.Equal(t, "", raw[2]["Overview"])
}

func TestMoviesEmptyCatalog(t *testing.T) {
	rec := newFixture(t, catalog.NewStore(nil), false).do(t, http.MethodGet, "/movies")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "no movie data")
}

func TestMovieByID(t *testing.T) {
	f := newFixture(t, testStore(), false)

	rec := f.do(t, http.MethodGet, "/movies/s2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Night Shift", decode[catalog.Movie](t, rec).Title)

	rec = f.do(t, http.MethodGet, "/movies/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"movie not found"}`, rec.Body.String())

	require.Len(t, f.tracker.events, 2)
	assert.Equal(t, analytics.EventFind, f.tracker.events[1].Type)
	assert.Equal(t, 0, f.tracker.events[1].Results)
}

func TestByCategory(t *testing.T) {
	f := newFixture(t, testStore(), false)

	for _, target := range []string{"/movies/by_category/?category=comed", "/movies/by_category?category=COMED"} {
		rec := f.do(t, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		movies := decode[[]catalog.Movie](t, rec)
		require.Len(t, movies, 1)
		assert.Equal(t, "s1", movies[0].ID)
	}

	rec := f.do(t, http.MethodGet, "/movies/by_category/?category=comedy")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/movies/by_category/?category=")
	assert.Len(t, decode[[]catalog.Movie](t, rec), 3)

	rec = f.do(t, http.MethodGet, "/movies/by_category/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatbot(t *testing.T) {
	f := newFixture(t, testStore(), false)

	rec := f.do(t, http.MethodGet, "/chatbot?query=something+funny")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ChatbotResponse](t, rec)
	assert.Equal(t, MessageFound, resp.Message)
	require.Len(t, resp.Movies, 1)
	assert.Equal(t, "s1", resp.Movies[0].ID)
	assert.Contains(t, resp.Keywords, "comedies")
	assert.Contains(t, resp.Keywords, "something")

	rec = f.do(t, http.MethodGet, "/chatbot?query=funny+or+scary")
	resp = decode[ChatbotResponse](t, rec)
	assert.Len(t, resp.Movies, 2)
}

func TestChatbotNoMatch(t *testing.T) {
	f := newFixture(t, testStore(), false)

	for _, target := range []string{"/chatbot?query=pitiful", "/chatbot?query="} {
		rec := f.do(t, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.True(t, strings.Contains(rec.Body.String(), `"movies":[]`), rec.Body.String())
		resp := decode[ChatbotResponse](t, rec)
		assert.Equal(t, MessageNotFound, resp.Message)
		assert.NotNil(t, resp.Keywords)
	}
}

func TestChatbotMissingQuery(t *testing.T) {
	rec := newFixture(t, testStore(), false).do(t, http.MethodGet, "/chatbot")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "query")
}

func TestChatbotUsesCache(t *testing.T) {
	f := newFixture(t, testStore(), true)

	first := f.do(t, http.MethodGet, "/chatbot?query=Funny")
	second := f.do(t, http.MethodGet, "/chatbot?query=funny")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "miss", first.Header().Get(CacheStatusHeader))
	assert.Equal(t, "hit", second.Header().Get(CacheStatusHeader))
	assert.Len(t, f.store.data, 1)

	require.Len(t, f.tracker.events, 2)
	assert.False(t, f.tracker.events[0].CacheHit)
	assert.True(t, f.tracker.events[1].CacheHit)

	stats := decode[map[string]any](t, f.do(t, http.MethodGet, "/api/v1/cache/stats"))
	assert.Equal(t, 1.0, stats["hits"])
	assert.Equal(t, "50.0%", stats["hit_rate"])

	rec := f.do(t, http.MethodPost, "/api/v1/cache/invalidate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode[map[string]any](t, rec)["keys_deleted"])
	assert.Empty(t, f.store.data)
}

func TestCacheAdminDisabled(t *testing.T) {
	f := newFixture(t, testStore(), false)
	assert.JSONEq(t, `{"status":"disabled"}`, f.do(t, http.MethodGet, "/api/v1/cache/stats").Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodPost, "/api/v1/cache/invalidate").Code)
}

func TestChatbotRecordsMetrics(t *testing.T) {
	f := newFixture(t, testStore(), false)
	f.do(t, http.MethodGet, "/chatbot?query=funny")
	f.do(t, http.MethodGet, "/chatbot?query=pitiful")
	f.do(t, http.MethodGet, "/chatbot")

	families, err := f.reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "chatbot_queries_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			counts[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"match": 1, "no_match": 1, "error": 1}, counts)
}

func TestNilTrackerAndMetrics(t *testing.T) {
	mux := http.NewServeMux()
	New(testStore(), testMatcher(), nil, nil, nil).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbot?query=scary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
