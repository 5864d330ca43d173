package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomdesk",
			Name:      "booking_requests_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	adminDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomdesk",
			Name:      "admin_decision_total",
			Help:      "Count of administrator decisions over booking requests.",
		},
		[]string{"decision"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomdesk",
			Name:      "http_requests_total",
			Help:      "Count of handled HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomdesk",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingRequests, adminDecision, httpRequests, cacheHits)
	})
}

// IncBookingRequest records a booking submission outcome
// ("created", "rejected_validation", "rejected_conflict", "error").
func IncBookingRequest(outcome string) {
	bookingRequests.WithLabelValues(outcome).Inc()
}

// IncAdminDecision records an approve/reject decision.
func IncAdminDecision(decision string) {
	adminDecision.WithLabelValues(decision).Inc()
}

// IncHTTP records a handled request for the named endpoint.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncCache records a cache lookup result ("hit" or "miss").
func IncCache(result string) {
	cacheHits.WithLabelValues(result).Inc()
}
