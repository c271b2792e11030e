package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notesweb/core/internal/domain/entities"
)

// Metrics owns a private registry with HTTP and note collectors
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	notesResolved   *prometheus.CounterVec
	indexWalks      *prometheus.CounterVec
	walkDuration    prometheus.Histogram
	indexedNotes    prometheus.Gauge
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notesResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_resolved_total",
				Help: "Note requests by outcome",
			},
			[]string{"outcome"},
		),
		indexWalks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_index_walks_total",
				Help: "Directory walks of the notes root by result",
			},
			[]string{"result"},
		),
		walkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notes_index_walk_duration_seconds",
			Help:    "Time spent walking the notes root",
			Buckets: prometheus.DefBuckets,
		}),
		indexedNotes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notes_indexed",
			Help: "Number of notes found by the last successful walk",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.notesResolved,
		m.indexWalks,
		m.walkDuration,
		m.indexedNotes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests per route pattern
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveResolve implements ports.NoteMetrics
func (m *Metrics) ObserveResolve(outcome entities.ResolveOutcome) {
	m.notesResolved.WithLabelValues(string(outcome)).Inc()
}

// ObserveWalk implements ports.NoteMetrics
func (m *Metrics) ObserveWalk(duration time.Duration, notes int, err error) {
	m.walkDuration.Observe(duration.Seconds())
	if err != nil {
		m.indexWalks.WithLabelValues("error").Inc()
		return
	}
	m.indexWalks.WithLabelValues("ok").Inc()
	m.indexedNotes.Set(float64(notes))
}
