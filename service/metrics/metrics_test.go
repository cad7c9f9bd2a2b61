package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry)
	require.NoError(t, err)

	m.Submission("submitted")
	m.Submission("submitted")
	m.Decision("approve", "applied")
	m.SyncListener()(errors.New("unreachable"))
	m.SyncListener()(nil)
	m.Reset(nil)
	m.JobStarted()
	m.JobFinished("submit", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("approve", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.jobsInflight))

	again, err := New(registry)
	require.NoError(t, err)
	again.Submission("submitted")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.submissions.WithLabelValues("submitted")))

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, recorder.Body.String(), "exclusor_submissions_total")
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Submission("x")
		m.Decision("approve", "applied")
		m.SyncListener()(errors.New("x"))
		m.Reset(errors.New("x"))
		m.JobStarted()
		m.JobFinished("submit", time.Second)
		m.Request("/exclude", 200)
	})
}
