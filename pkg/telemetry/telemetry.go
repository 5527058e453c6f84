// Package telemetry exposes Prometheus metrics for the HTTP surface and
// the relay.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentorhub_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	streamFragments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_stream_fragments_total",
		Help: "Reply fragments relayed to clients.",
	})

	streamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_stream_failures_total",
		Help: "Streams that terminated with an upstream error.",
	})

	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentorhub_gate_decisions_total",
		Help: "Access gate outcomes.",
	}, []string{"outcome"})

	housekeepingSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_housekeeping_sweeps_total",
		Help: "Completed orphaned-upload sweeps.",
	})

	housekeepingRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mentorhub_housekeeping_removed_total",
		Help: "Orphaned uploads removed by the sweeper.",
	})
)

// RegisterStoreSize exposes the claims store's on-disk size as a gauge.
// Called once at startup; sizeFn is polled on every scrape.
func RegisterStoreSize(sizeFn func() uint64) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mentorhub_claims_store_bytes",
		Help: "On-disk size of the claims store.",
	}, func() float64 { return float64(sizeFn()) }))
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }

// CountFragment records one relayed reply fragment.
func CountFragment() { streamFragments.Inc() }

// CountStreamFailure records an abnormally terminated stream.
func CountStreamFailure() { streamFailures.Inc() }

// CountGateDecision records an access gate outcome (serve, signin, upgrade).
func CountGateDecision(outcome string) { gateDecisions.WithLabelValues(outcome).Inc() }

// CountSweep records one completed sweep and how many files it removed.
func CountSweep(removed int) {
	housekeepingSweeps.Inc()
	housekeepingRemoved.Add(float64(removed))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request counts and latency per route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
