package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsWorkflowEvents(t *testing.T) {
	m := NewMetricsService()
	m.RecordTransition("advance", "moved")
	m.RecordTransition("advance", "moved")
	m.RecordPromotion(false)
	m.RecordLedgerRepair("repaired")
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/enrollments/:id/advance", http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("advance", "moved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotions.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerRepairs.WithLabelValues("repaired")))

	count, err := testutil.GatherAndCount(m.Registry(), "enrollment_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "enrollment_transitions_total"))
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordTransition("advance", "moved")
		m.RecordPromotion(true)
		m.RecordLedgerRepair("error")
		m.RecordCacheOperation(true, time.Millisecond)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
