package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muni-digital/gestion-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the back office.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	actionTotal     *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	actionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_actions_total",
		Help: "Lifecycle actions by request type, verb and outcome",
	}, []string{"request_type", "action", "outcome"})

	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Latency of calls to the upstream municipal system",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "actions_in_flight",
		Help: "Actions applied locally and awaiting upstream confirmation",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suggestion_cache_hits_total",
		Help: "Suggestion cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suggestion_cache_misses_total",
		Help: "Suggestion cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, actionTotal, gatewayLatency, inFlight, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		actionTotal:     actionTotal,
		gatewayLatency:  gatewayLatency,
		inFlight:        inFlight,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveAction counts one lifecycle action outcome. A rising ROLLED_BACK
// series is the first sign the upstream is rejecting what operators apply.
func (m *MetricsService) ObserveAction(t models.RequestType, action, outcome string) {
	if m == nil {
		return
	}
	m.actionTotal.WithLabelValues(string(t), action, outcome).Inc()
	switch outcome {
	case models.ActionOutcomeApplied:
		m.inFlight.Inc()
	case models.ActionOutcomeConfirmed, models.ActionOutcomeRolledBack:
		m.inFlight.Dec()
	}
}

// ObserveGatewayRequest records upstream call timing per operation.
func (m *MetricsService) ObserveGatewayRequest(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheOperation counts suggestion cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
