package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	before := testutil.ToFloat64(bookingOutcomes.WithLabelValues(OutcomeConflict))
	IncBooking(OutcomeConflict)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingOutcomes.WithLabelValues(OutcomeConflict)))

	beforeHTTP := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/cabins", "200"))
	IncHTTP("/api/v1/cabins", "200")
	assert.Equal(t, beforeHTTP+1, testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/cabins", "200")))

	beforeFree := testutil.ToFloat64(availabilityChecks.WithLabelValues("true"))
	IncAvailability(true)
	IncAvailability(false)
	assert.Equal(t, beforeFree+1, testutil.ToFloat64(availabilityChecks.WithLabelValues("true")))

	assert.NotPanics(t, func() {
		ObserveBooking(time.Now().Add(-time.Second))
	})
}
