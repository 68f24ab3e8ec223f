package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/metrics"
)

// Metrics records request count, latency and in-flight requests, labelled by
// method, route and status.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				m.HTTPRequestsInFlight.Dec()
				route := normalizePath(r.URL.Path)
				m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.code())).Inc()
				m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// statusRecorder remembers the first status written; a body written without
// one implies 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// normalizePath collapses movie ids so the route label stays bounded.
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/movies/")
	switch {
	case !ok || rest == "":
		return path
	case strings.HasPrefix(rest, "by_category"):
		return "/movies/by_category"
	default:
		return "/movies/{id}"
	}
}
