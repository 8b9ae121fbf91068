// Package metrics registers the Prometheus instrumentation for the
// feasibility pipeline and its HTTP surface.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "chargemap_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	analysesTotal   *prometheus.CounterVec
	analysesPartial prometheus.Counter
	analysisLatency *prometheus.HistogramVec

	runsPersisted *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		analysesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analyses_total",
				Help: "Total site analyses by verdict",
			},
			[]string{"verdict"},
		)
		analysesPartial = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "analyses_partial_total",
				Help: "Total analyses that ran with substituted defaults",
			},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "Site analysis latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		runsPersisted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_persisted_total",
				Help: "Total run history writes by result",
			},
			[]string{"result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		prometheus.MustRegister(
			analysesTotal,
			analysesPartial,
			analysisLatency,
			runsPersisted,
			httpRequests,
			httpLatency,
		)
	})
}

// ObserveAnalysis records one completed evaluation.
func ObserveAnalysis(verdict string, partial bool, duration time.Duration) {
	if analysesTotal != nil {
		analysesTotal.WithLabelValues(verdict).Inc()
	}
	if partial && analysesPartial != nil {
		analysesPartial.Inc()
	}
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(ResultSuccess).Observe(duration.Seconds())
	}
}

// ObserveAnalysisError records a failed evaluation.
func ObserveAnalysisError(duration time.Duration) {
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(ResultError).Observe(duration.Seconds())
	}
}

// IncRunPersisted records a run history write.
func IncRunPersisted(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if runsPersisted != nil {
		runsPersisted.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}
