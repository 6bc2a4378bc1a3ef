// Package metrics - Prometheus collectors for the detection pipeline.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all application metrics
type Metrics struct {
	// Requests in flight across every transport.
	InFlight atomic.Int64

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	detections   prometheus.Histogram
	modelsLoaded prometheus.Gauge

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_requests_total",
			Help: "Detection requests by outcome",
		}, []string{"status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "detect_inference_latency_ms",
			Help:    "Forward pass latency in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"model"}),
		detections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "detect_detections",
			Help:    "Detections returned per successful request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		modelsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "detect_models_loaded",
			Help: "Model handles currently cached",
		}),
	}

	m.registry.MustRegister(m.requests, m.latency, m.detections, m.modelsLoaded)
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "detect_requests_in_flight",
			Help: "Detection requests currently being processed",
		},
		func() float64 { return float64(m.InFlight.Load()) },
	))

	return m
}

// ObserveRequest counts one finished request.
func (m *Metrics) ObserveRequest(err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.requests.WithLabelValues(status).Inc()
}

// ObserveInference records a forward pass latency for model.
func (m *Metrics) ObserveInference(model string, ms float64) {
	m.latency.WithLabelValues(model).Observe(ms)
}

// ObserveDetections records the size of a response.
func (m *Metrics) ObserveDetections(n int) {
	m.detections.Observe(float64(n))
}

// SetModelsLoaded updates the cached model gauge.
func (m *Metrics) SetModelsLoaded(n int) {
	m.modelsLoaded.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
