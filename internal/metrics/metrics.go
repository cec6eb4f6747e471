package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Booking outcomes.
const (
	OutcomeCreated         = "created"
	OutcomeConflict        = "conflict"
	OutcomeValidation      = "validation"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeTransient       = "transient"
	OutcomeError           = "error"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cabanas",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cabanas",
			Name:      "booking_attempts_total",
			Help:      "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cabanas",
			Name:      "availability_checks_total",
			Help:      "Availability checks by result.",
		},
		[]string{"available"},
	)

	bookingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cabanas",
			Name:      "booking_create_duration_seconds",
			Help:      "Time spent creating a booking, store retries included.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOutcomes, availabilityChecks, bookingDuration)
	})
}

// IncHTTP counts a served request.
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncBooking(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

func IncAvailability(available bool) {
	label := "false"
	if available {
		label = "true"
	}
	availabilityChecks.WithLabelValues(label).Inc()
}

// ObserveBooking records the duration since start.
func ObserveBooking(start time.Time) {
	bookingDuration.Observe(time.Since(start).Seconds())
}
