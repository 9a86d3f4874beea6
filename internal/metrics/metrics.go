// Package metrics exposes the Prometheus collectors for the admin backend.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "admin_backend",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_backend",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "admin_backend",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_backend",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	approvals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin_backend",
			Subsystem: "approvals",
			Name:      "decisions_total",
			Help:      "Total number of deposit and withdrawal decisions.",
		},
		[]string{"kind", "decision"},
	)

	pendingRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "admin_backend",
			Subsystem: "approvals",
			Name:      "pending_requests",
			Help:      "Current number of pending deposit and withdrawal requests.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOps,
		approvals,
		pendingRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLedgerOp records one ledger mutation attempt.
func RecordLedgerOp(operation, outcome string) {
	ledgerOps.WithLabelValues(operation, outcome).Inc()
}

// RecordApproval records one deposit or withdrawal decision.
func RecordApproval(kind, decision string) {
	approvals.WithLabelValues(kind, decision).Inc()
}

// SetPendingRequests updates the pending-request gauge for one request kind.
func SetPendingRequests(kind string, n int64) {
	pendingRequests.WithLabelValues(kind).Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
