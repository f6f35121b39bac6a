package observability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth_gateway"

// Metrics holds the Prometheus collectors for the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests         *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	Errors           *prometheus.CounterVec
	GateOutcomes     *prometheus.CounterVec
	RevocationsAdded prometheus.Counter
	RevocationsSwept prometheus.Counter
	RevokedTokens    prometheus.Gauge
}

// NewMetrics builds the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests partitioned by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latencies in seconds partitioned by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of error responses partitioned by error code.",
		}, []string{"method", "route", "code"}),
		GateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Authentication gate decisions partitioned by outcome.",
		}, []string{"outcome"}),
		RevocationsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "added_total",
			Help:      "Tokens added to the revocation store.",
		}),
		RevocationsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "swept_total",
			Help:      "Expired revocation entries removed by the sweeper.",
		}),
		RevokedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "entries",
			Help:      "Revoked tokens currently tracked.",
		}),
	}

	collectors := []prometheus.Collector{
		m.Requests, m.Duration, m.Errors, m.GateOutcomes,
		m.RevocationsAdded, m.RevocationsSwept, m.RevokedTokens,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.Duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(method, route, code).Inc()
}

// RecordGateOutcome counts one authentication gate decision.
func (m *Metrics) RecordGateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.GateOutcomes.WithLabelValues(outcome).Inc()
}

// RecordRevocation counts a newly revoked token.
func (m *Metrics) RecordRevocation(tracked int) {
	if m == nil {
		return
	}
	m.RevocationsAdded.Inc()
	m.RevokedTokens.Set(float64(tracked))
}

// RecordSweep counts entries removed by a sweep and the remaining store size.
func (m *Metrics) RecordSweep(removed, remaining int) {
	if m == nil {
		return
	}
	m.RevocationsSwept.Add(float64(removed))
	m.RevokedTokens.Set(float64(remaining))
}
