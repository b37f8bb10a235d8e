package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "topomap"

// Load results recorded by ObserveLoad.
const (
	LoadOK       = "ok"
	LoadError    = "error"
	LoadStale    = "stale"
	LoadFallback = "fallback"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	topologyLoads       *prometheus.CounterVec
	loadDuration        prometheus.Histogram
	renderDuration      prometheus.Histogram
	renderedElements    *prometheus.GaugeVec
	viewerSessions      prometheus.Gauge
}

// New creates a fresh registry with HTTP, topology load, render and session metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the map service",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the map service",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	topologyLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topology_loads_total",
		Help:      "Topology loads by outcome (ok, error, stale, fallback)",
	}, []string{"result"})

	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "topology_load_duration_seconds",
		Help:      "Time from requesting a topology to it being applied or dropped",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scene_render_duration_seconds",
		Help:      "Duration of overlay scene renders",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	renderedElements := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scene_elements",
		Help:      "Elements drawn by the most recent render",
	}, []string{"kind"})

	viewerSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "viewer_sessions",
		Help:      "Live viewer sessions",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		topologyLoads,
		loadDuration,
		renderDuration,
		renderedElements,
		viewerSessions,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		topologyLoads:       topologyLoads,
		loadDuration:        loadDuration,
		renderDuration:      renderDuration,
		renderedElements:    renderedElements,
		viewerSessions:      viewerSessions,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveLoad records the outcome of one topology load.
func (m *Metrics) ObserveLoad(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.topologyLoads.WithLabelValues(result).Inc()
	m.loadDuration.Observe(duration.Seconds())
}

// ObserveRender records a scene render and how much it drew.
func (m *Metrics) ObserveRender(markers, strokes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(duration.Seconds())
	m.renderedElements.WithLabelValues("marker").Set(float64(markers))
	m.renderedElements.WithLabelValues("stroke").Set(float64(strokes))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.viewerSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.viewerSessions.Dec()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
