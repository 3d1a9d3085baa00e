// Package metrics declares the Prometheus collectors of the booking core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reservations counts reservation attempts by outcome
	// (created, capacity_exceeded, conflict, error).
	Reservations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "reservations_total", Help: "Session reservation attempts",
	}, []string{"result"})

	// Rentals counts vehicle rental requests by outcome.
	Rentals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "vehicle_rentals_total", Help: "Vehicle rental requests",
	}, []string{"result"})

	// Transitions counts applied status changes.
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "status_transitions_total", Help: "Applied status transitions",
	}, []string{"kind", "to"})

	// NotificationFailures counts notifications that could not be handed
	// to the transport.
	NotificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "notification_failures_total", Help: "Notification dispatch failures",
	}, []string{"event"})

	// Documents counts finalize and sweep outcomes per temp document.
	Documents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "documents_finalized_total", Help: "Temp document outcomes by result",
	}, []string{"result"})

	// TrackingLookups counts public tracking requests by hit/miss.
	TrackingLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxischool", Name: "tracking_lookups_total", Help: "Public tracking lookups",
	}, []string{"result"})

	// HTTPDuration observes handler latency by route and status class.
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taxischool", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func init() {
	prometheus.MustRegister(Reservations, Rentals, Transitions, NotificationFailures,
		Documents, TrackingLookups, HTTPDuration)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
