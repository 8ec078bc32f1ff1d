package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/recipes", "200"))
	ObserveHTTPRequest("GET", "/api/recipes", "200", 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/recipes", "200")))
}

func TestObserveEmail(t *testing.T) {
	ObserveEmail("welcome", "error")
	assert.GreaterOrEqual(t, testutil.ToFloat64(emailsSent.WithLabelValues("welcome", "error")), 1.0)
}

func TestObserveRateLimited(t *testing.T) {
	before := testutil.ToFloat64(rateLimited.WithLabelValues("login"))
	ObserveRateLimited("login")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimited.WithLabelValues("login")))
}
