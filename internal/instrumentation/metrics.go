package instrumentation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

// Metrics contains all Prometheus metrics for chart calculation and the HTTP API.
type Metrics struct {
	ChartsTotal      *prometheus.CounterVec
	CalcLatencyMs    prometheus.Histogram
	ProviderLatency  *prometheus.HistogramVec
	FallbacksTotal   prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	RequestLatencyMs *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Completed charts by house system actually used
		ChartsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "natal_charts_calculated_total",
			Help: "Total number of charts calculated by house system",
		}, []string{"house_system"}),

		// End-to-end calculation latency
		CalcLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "natal_calc_latency_ms",
			Help:    "Time to calculate a chart in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		}),

		// Time spent in the ephemeris provider per body
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "natal_ephemeris_latency_ms",
			Help:    "Ephemeris provider latency per body in milliseconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 25, 100, 500},
		}, []string{"body"}),

		FallbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "natal_house_fallbacks_total",
			Help: "Charts where a quadrant house system was replaced by Equal houses",
		}),

		// Errors by component and error code
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "natal_errors_total",
			Help: "Total number of errors by component and code",
		}, []string{"component", "code"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "natal_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),

		RequestLatencyMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "natal_http_latency_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
	}
}

// RecordChart records a finished calculation.
func (m *Metrics) RecordChart(system string, fallback bool, elapsed time.Duration) {
	m.ChartsTotal.WithLabelValues(system).Inc()
	m.CalcLatencyMs.Observe(ms(elapsed))
	if fallback {
		m.FallbacksTotal.Inc()
	}
}

// RecordProvider records the latency of one ephemeris call.
func (m *Metrics) RecordProvider(body string, elapsed time.Duration) {
	m.ProviderLatency.WithLabelValues(body).Observe(ms(elapsed))
}

// RecordError increments the error counter with the error's stable code.
func (m *Metrics) RecordError(component string, err error) {
	m.ErrorsTotal.WithLabelValues(component, string(models.CodeOf(err))).Inc()
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.RequestLatencyMs.WithLabelValues(route).Observe(ms(elapsed))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
