package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "parttrack"

// Metrics holds the Prometheus collectors for one server. Each instance has
// its own registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	chainBuilds    prometheus.Counter
	eventsAppended prometheus.Counter
	duplicateParts prometheus.Gauge
}

// NewMetrics creates and registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		chainBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chain_builds_total",
			Help:      "Chains produced by resolver passes",
		}),
		eventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_appended_total",
			Help:      "Rows appended to the connection log",
		}),
		duplicateParts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "duplicate_parts",
			Help:      "Parts with more than one row in the connection log at the last resolver pass",
		}),
	}

	m.registry.MustRegister(m.httpRequests, m.chainBuilds, m.eventsAppended, m.duplicateParts)
	return m
}

// ChainsBuilt implements tracker.Observer.
func (m *Metrics) ChainsBuilt(chains int) {
	m.chainBuilds.Add(float64(chains))
}

// EventsAppended implements tracker.Observer.
func (m *Metrics) EventsAppended(n int) {
	m.eventsAppended.Add(float64(n))
}

// DuplicatesFound implements tracker.Observer.
func (m *Metrics) DuplicatesFound(parts int) {
	m.duplicateParts.Set(float64(parts))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// middleware counts every request once it has been handled.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
