// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stadium_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// BookingTransitionsTotal counts committed booking lifecycle events by kind.
	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_booking_transitions_total",
			Help: "Committed booking and slot transitions",
		},
		[]string{"event"},
	)

	// SlotConflictsTotal counts requests refused by slot state.
	SlotConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_slot_conflicts_total",
			Help: "Booking operations refused because of slot state",
		},
		[]string{"reason"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stadium_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransition(event string) {
	BookingTransitionsTotal.WithLabelValues(event).Inc()
}

func RecordSlotConflict(reason string) {
	SlotConflictsTotal.WithLabelValues(reason).Inc()
}

func RecordPublish(routingKey string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
