package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(LoginAttempts.WithLabelValues("success"))
	LoginAttempts.WithLabelValues("success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LoginAttempts.WithLabelValues("success")))

	before = testutil.ToFloat64(Notifications.WithLabelValues("dropped"))
	Notifications.WithLabelValues("dropped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Notifications.WithLabelValues("dropped")))
}
