// Package metrics exposes Prometheus collectors of the pipeline and the dashboard API
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

const namespace = "mayabus"

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeEmpty   = "empty"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	combinedRecords prometheus.Gauge
	droppedRows     prometheus.Counter
	decodeErrors    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Reconciliation runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of reconciliation runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		combinedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "combined_records",
			Help:      "Combined records produced by the last successful run.",
		}),
		droppedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_rows_total",
			Help:      "Validation rows dropped for an invalid date.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Input files that could not be decoded, by category.",
		}, []string{"category"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard API requests by route and status.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.combinedRecords,
		m.droppedRows,
		m.decodeErrors,
		m.httpRequests,
	)
	return m
}

// Outcome classifies a processed run
func Outcome(out *models.ProcessedData) string {
	switch {
	case out.Failed():
		return OutcomeFailed
	case !out.HasRecords():
		return OutcomeEmpty
	default:
		return OutcomeSuccess
	}
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(out *models.ProcessedData, duration time.Duration) {
	if m == nil || out == nil {
		return
	}
	outcome := Outcome(out)
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		m.combinedRecords.Set(float64(len(out.CombinedData)))
		m.droppedRows.Add(float64(out.DroppedRows))
	}
}

// DecodeError counts a file that failed to decode
func (m *Metrics) DecodeError(category models.Category) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(string(category)).Inc()
}

// Handler serves the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts the requests served by next under route
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
	})
}
