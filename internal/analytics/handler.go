package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

const maxTop = 100

// Handler serves GET /api/v1/analytics. A nil aggregator means analytics are
// disabled.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats answers with the aggregated statistics. The optional top parameter
// (1..100) sizes the top query and keyword lists.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.aggregator == nil {
		h.write(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	n := topN
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxTop {
			h.write(w, http.StatusBadRequest, map[string]string{"error": "top must be an integer between 1 and 100"})
			return
		}
		n = v
	}
	h.write(w, http.StatusOK, h.aggregator.StatsTop(n))
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
