// Package metrics holds the Prometheus instruments of the map service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fibermap"

// Metrics holds counters, histograms and gauges on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Region API client.
	APIRequests *prometheus.CounterVec   // labels: op={regions,region,geojson}, outcome={success,error}
	APIDuration *prometheus.HistogramVec // labels: op

	// Application state.
	ShellState    prometheus.Gauge // 0 loading, 1 loaded, 2 error
	Regions       prometheus.Gauge
	MarkerClicks  prometheus.Counter
	HTTPRequests  *prometheus.CounterVec // labels: method, code
	HTTPDuration  prometheus.Histogram
	TileRequests  *prometheus.CounterVec // labels: result={hit,miss,empty,error}
	TileDownloads prometheus.Histogram
}

// New creates all metrics and registers them on a fresh registry
// together with the process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Region API requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Region API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		ShellState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Application state: 0 loading, 1 loaded, 2 error.",
		}),
		Regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Number of regions drawn on the map.",
		}),
		MarkerClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_clicks_total",
			Help:      "Marker clicks that changed the selected region.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		TileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_requests_total",
			Help:      "Tile cache lookups by result.",
		}, []string{"result"}),
		TileDownloads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tile_download_duration_seconds",
			Help:      "Upstream tile download and conversion duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.APIRequests,
		m.APIDuration,
		m.ShellState,
		m.Regions,
		m.MarkerClicks,
		m.HTTPRequests,
		m.HTTPDuration,
		m.TileRequests,
		m.TileDownloads,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry, used by tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
