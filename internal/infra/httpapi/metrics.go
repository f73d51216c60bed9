package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Metrics holds the calculator metrics on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	calculations *prometheus.CounterVec
	duration     prometheus.Histogram
	points       prometheus.Histogram
	inFlight     prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desim_calculations_total",
			Help: "Sensitivity calculation requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "desim_calculation_duration_seconds",
			Help:    "Wall time of a sensitivity calculation request.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "desim_calculation_points",
			Help:    "Rows computed per successful request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "desim_http_requests_in_flight",
			Help: "Current number of HTTP requests being served.",
		}),
	}

	reg.MustRegister(
		m.calculations,
		m.duration,
		m.points,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, o := range []string{outcomeOK, outcomeInvalid, outcomeError} {
		m.calculations.WithLabelValues(o)
	}
	return m
}

func (m *Metrics) observe(outcome string, seconds float64, rows int) {
	m.calculations.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
	if outcome == outcomeOK {
		m.points.Observe(float64(rows))
	}
}

func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the registry for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
