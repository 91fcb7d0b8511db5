package instrumentation

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/models"
)

var _ chart.Recorder = (*Metrics)(nil)

func TestRecordChart(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordChart("placidus", false, 2*time.Millisecond)
	m.RecordChart("equal", true, 3*time.Millisecond)
	m.RecordChart("equal", false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartsTotal.WithLabelValues("placidus")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChartsTotal.WithLabelValues("equal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CalcLatencyMs))
}

func TestRecordError_UsesCode(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordError("calculator", fmt.Errorf("mars: %w", models.ErrEphemerisUnavailable))
	m.RecordError("calculator", fmt.Errorf("wrapped twice: %w", fmt.Errorf("lat: %w", models.ErrInvalidCoordinate)))
	m.RecordError("server", fmt.Errorf("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("calculator", "EPHEMERIS_UNAVAILABLE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("calculator", "INVALID_COORDINATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("server", "INTERNAL_ERROR")))
}

func TestRecordRequest_StatusClass(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	for _, status := range []int{200, 204, 400, 422, 503} {
		m.RecordRequest("/v1/chart", status, time.Millisecond)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/chart", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/chart", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/chart", "5xx")))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	// Registering twice on one registry would panic; separate registries must not
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
