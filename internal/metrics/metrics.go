// Package metrics exposes graphd's Prometheus metrics: editor commits,
// graph size, autosave health and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/persistence"
)

const namespace = "graphd"

// Registry holds every metric on a private Prometheus registry, so tests
// can create as many as they like.
type Registry struct {
	registry *prometheus.Registry

	// Editor
	MutationsTotal *prometheus.CounterVec
	GraphEntities  *prometheus.GaugeVec

	// Autosave
	AutosaveTotal     *prometheus.CounterVec
	AutosaveDuration  prometheus.Histogram
	AutosaveLastBytes prometheus.Gauge

	// Transport
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WebSocketClients    prometheus.Gauge
}

// NewRegistry creates a registry with all metrics plus the Go runtime and
// process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initEditorMetrics()
	r.initAutosaveMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initEditorMetrics() {
	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Editor mutation requests by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	r.GraphEntities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_entities",
			Help:      "Number of entities in the working graph by kind",
		},
		[]string{"kind"},
	)
}

func (r *Registry) initAutosaveMetrics() {
	r.AutosaveTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_total",
			Help:      "Autosave attempts by result",
		},
		[]string{"result"},
	)

	r.AutosaveDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "autosave_duration_seconds",
			Help:      "Time spent encoding and writing the graph",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	r.AutosaveLastBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "autosave_last_bytes",
			Help:      "Size of the last successfully saved document",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.WebSocketClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients",
		},
	)
}

// ObserveEvent is a graph.Observer recording the commit and the graph
// size that resulted from it.
func (r *Registry) ObserveEvent(ev graph.Event) {
	r.MutationsTotal.WithLabelValues(string(ev.Op), string(ev.Outcome)).Inc()
	r.SetGraphStats(ev.Stats)
}

// SetGraphStats updates the entity gauges.
func (r *Registry) SetGraphStats(s graph.Stats) {
	r.GraphEntities.WithLabelValues("device_types").Set(float64(s.DeviceTypes))
	r.GraphEntities.WithLabelValues("devices").Set(float64(s.Devices))
	r.GraphEntities.WithLabelValues("ports").Set(float64(s.Ports))
	r.GraphEntities.WithLabelValues("internal_connections").Set(float64(s.InternalConnections))
	r.GraphEntities.WithLabelValues("connections").Set(float64(s.Connections))
}

// ObserveSave is a persistence.SaveHook.
func (r *Registry) ObserveSave(res persistence.SaveResult) {
	r.AutosaveDuration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		r.AutosaveTotal.WithLabelValues("error").Inc()
		return
	}
	r.AutosaveTotal.WithLabelValues("success").Inc()
	r.AutosaveLastBytes.Set(float64(res.Bytes))
}

// RecordHTTPRequest records one served request. route is the router
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
