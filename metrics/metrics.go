package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vogue"

type Registry struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	llmTokens        *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
}

func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	providerCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Provider calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	providerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
		[]string{"operation"},
	)
	llmTokens := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage reported by the provider.",
		},
		[]string{"operation", "direction", "model"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		},
		[]string{"from", "to"},
	)
	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held in memory.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		providerCalls,
		providerDuration,
		llmTokens,
		transitions,
		sessionsActive,
	)

	return &Registry{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		providerCalls:    providerCalls,
		providerDuration: providerDuration,
		llmTokens:        llmTokens,
		transitions:      transitions,
		sessionsActive:   sessionsActive,
	}
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Middleware labels requests by route pattern so session ids do not explode cardinality.
func (m *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Registry) RecordProviderCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(operation, outcome).Inc()
	m.providerDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Registry) RecordTokenUsage(operation, model string, promptTokens, outputTokens int32) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokens.WithLabelValues(operation, "in", model).Add(float64(promptTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(operation, "out", model).Add(float64(outputTokens))
	}
}

func (m *Registry) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Registry) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Registry) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}
