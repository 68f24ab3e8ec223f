// Package analytics records what users ask the catalog. Handlers hand a
// QueryEvent to the Collector, which batches events to Kafka; the Aggregator
// consumes them and serves running statistics.
package analytics

import "time"

// EventType names the endpoint that produced an event.
type EventType string

const (
	EventChatbot  EventType = "chatbot"
	EventCategory EventType = "category"
	EventFind     EventType = "find"
)

// QueryEvent describes one answered query.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Keywords  []string  `json:"keywords,omitempty"`
	Results   int       `json:"results"`
	LatencyMs float64   `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// eventKey partitions events by type so a consumer sees each type in order.
func (e QueryEvent) eventKey() string {
	return string(e.Type)
}
