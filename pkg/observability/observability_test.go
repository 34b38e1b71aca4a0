package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpwire/mcpwire/pkg/protocol"
)

func TestEngineMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics("mcpwire", reg)

	m.RecordParse(protocol.KindRequest)
	m.RecordParse(protocol.KindRequest)
	m.RecordParse(protocol.KindNotification)
	m.RecordParseError()
	m.RecordHandshake(true)
	m.RecordHandshake(false)
	m.RecordDispatch("tools/call", true, 5*time.Millisecond)
	m.RecordTransition("UNINITIALIZED", "INITIALIZE_REQUEST")
	m.SetActiveSessions(3)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.messagesParsed.WithLabelValues("request")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.messagesParsed.WithLabelValues("notification")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.parseErrors))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.handshakes.WithLabelValues("success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.dispatchTotal.WithLabelValues("tools/call", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.transitions.WithLabelValues("UNINITIALIZED", "INITIALIZE_REQUEST")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.activeSessions))
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics

	// All record paths must be callable on a nil sink.
	m.RecordParse(protocol.KindRequest)
	m.RecordParseError()
	m.RecordHandshake(true)
	m.RecordDispatch("x", false, time.Millisecond)
	m.RecordTransition("a", "b")
	m.SetActiveSessions(0)
}

func TestNoopTracingProvider(t *testing.T) {
	tp, err := NewTracingProvider(DefaultTracingConfig())
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())

	ctx, span := tp.Tracer().Start(context.Background(), "test")
	span.End()
	assert.NotNil(t, ctx)

	require.NoError(t, tp.Shutdown(context.Background()))
	// A second shutdown is a no-op.
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestUnknownExporterRejected(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.ExporterType = "carrier-pigeon"
	_, err := NewTracingProvider(cfg)
	assert.Error(t, err)
}
