package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(&models.ProcessedData{CombinedData: make([]models.CombinedRecord, 4), DroppedRows: 2}, time.Second)
	m.ObserveRun(&models.ProcessedData{Err: errors.New("boom")}, time.Second)
	m.ObserveRun(&models.ProcessedData{}, time.Second)

	body := scrape(t, m)
	assert.Contains(t, body, `mayabus_pipeline_runs_total{outcome="success"} 1`)
	assert.Contains(t, body, `mayabus_pipeline_runs_total{outcome="failed"} 1`)
	assert.Contains(t, body, `mayabus_pipeline_runs_total{outcome="empty"} 1`)
	assert.Contains(t, body, "mayabus_combined_records 4")
	assert.Contains(t, body, "mayabus_dropped_rows_total 2")
	assert.Contains(t, body, "mayabus_pipeline_duration_seconds_count 3")
}

func TestDecodeError(t *testing.T) {
	m := New()
	m.DecodeError(models.CategoryServices)

	assert.Contains(t, scrape(t, m), `mayabus_decode_errors_total{category="servicios"} 1`)
}

func TestWrapHandlerCountsStatus(t *testing.T) {
	m := New()
	h := m.WrapHandler("files", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, scrape(t, m), `mayabus_http_requests_total{route="files",status="400"} 1`)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeFailed, Outcome(&models.ProcessedData{Err: models.ErrNoInput}))
	assert.Equal(t, OutcomeEmpty, Outcome(&models.ProcessedData{}))
	assert.Equal(t, OutcomeSuccess, Outcome(&models.ProcessedData{CombinedData: make([]models.CombinedRecord, 1)}))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRun(&models.ProcessedData{}, time.Second)
	m.DecodeError(models.CategoryTickets)

	next := http.NotFoundHandler()
	assert.NotNil(t, m.WrapHandler("x", next))
}
