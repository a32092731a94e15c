package observability

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ChatTurnsTotal.WithLabelValues(PathRelay, "completed").Inc()
	m.FallbacksTotal.WithLabelValues("status").Add(2)
	m.EscalationsTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatTurnsTotal.WithLabelValues(PathRelay, "completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("status")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EscalationsTotal))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	// Unlabelled counters and gauges are exported even at zero.
	assert.Equal(t, 5, count)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn", "json")
	log.Info("hidden")
	log.Warn("shown", "session_id", "s1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"session_id":"s1"`)
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
