package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/ejournal/core/export"
	"github.com/trezcool/ejournal/core/mark"
)

const metricsNamespace = "ejournal"

// metrics are registered on a registry owned by the server, so that servers built by tests do not collide.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	marks    *prometheus.CounterVec
	exports  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"method", "route", "code"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "marks_set_total",
			Help:      "Marks written to the roster, by kind.",
		}, []string{"kind"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Journal exports produced, by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(m.requests, m.marks, m.exports)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := next(ctx); err != nil {
			ctx.Error(err)
		}
		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(ctx.Request().Method, route, strconv.Itoa(ctx.Response().Status)).Inc()
		return nil
	}
}

func (m *metrics) markSet(mk mark.Mark) {
	kind := "cleared"
	switch {
	case mk.IsNumeric():
		kind = "grade"
	case mk.IsStatus():
		kind = "status"
	}
	m.marks.WithLabelValues(kind).Inc()
}

func (m *metrics) exported(format export.Format) {
	m.exports.WithLabelValues(string(format)).Inc()
}
