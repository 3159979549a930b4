package telemetry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fyrsmithlabs/pinrecover/internal/config"
)

type stubMetricExporter struct {
	exports atomic.Int32
}

func (e *stubMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *stubMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *stubMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error {
	e.exports.Add(1)
	return nil
}

func (e *stubMetricExporter) ForceFlush(context.Context) error { return nil }

func (e *stubMetricExporter) Shutdown(context.Context) error { return nil }

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	tel, err := New(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, tel.IsEnabled())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = ""

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid telemetry config")
}

func TestNew_EnabledWithExporters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	metrics := &stubMetricExporter{}
	tel, err := New(context.Background(), cfg, WithTraceExporter(spans), WithMetricExporter(metrics))
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	assert.True(t, tel.IsEnabled())
	assert.False(t, tel.Health().Degraded)

	_, span := tel.Tracer("test").Start(context.Background(), "scan")
	span.End()

	counter, err := tel.Meter("test").Int64Counter("scans")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, tel.ForceFlush(context.Background()))
	require.Len(t, spans.GetSpans(), 1)
	assert.Equal(t, "scan", spans.GetSpans()[0].Name)
	assert.GreaterOrEqual(t, metrics.exports.Load(), int32(1))
}

func TestNew_EnabledDefaultExporters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Shutdown.Timeout = config.Duration(100 * time.Millisecond)

	for _, protocol := range []string{ProtocolGRPC, ProtocolHTTP} {
		cfg.Protocol = protocol
		tel, err := New(context.Background(), cfg)
		require.NoError(t, err, protocol)
		assert.True(t, tel.IsEnabled(), protocol)

		// No collector is listening; shutdown must still return.
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		_ = tel.Shutdown(ctx)
		cancel()
		assert.False(t, tel.IsEnabled())
	}
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.Nil(t, tel.LoggerProvider())
	assert.False(t, tel.IsEnabled())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	tel.SetLoggerProvider(nil)

	h := tel.Health()
	assert.False(t, h.Healthy)
	assert.True(t, h.Degraded)
}

func TestTelemetry_SetDegraded(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	tel.setDegraded(wrapExporterErr("trace", assert.AnError))
	h := tel.Health()
	assert.True(t, h.Degraded)
	assert.Contains(t, h.Reason, "creating trace exporter")
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "otel.example.com:4318", stripScheme("https://otel.example.com:4318"))
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestNewResource(t *testing.T) {
	cfg := NewDefaultConfig()
	res := newResource(cfg)

	var found bool
	for _, attr := range res.Attributes() {
		if attr.Key == "service.name" {
			assert.Equal(t, cfg.ServiceName, attr.Value.AsString())
			found = true
		}
	}
	assert.True(t, found, "service.name attribute not found")
}

func TestTestTelemetry_Spans(t *testing.T) {
	tt := NewTestTelemetry()
	assert.True(t, tt.IsEnabled())

	_, span := tt.Tracer("test").Start(context.Background(), "scanner.ScanFile")
	span.SetAttributes(
		attribute.String("scan.outcome", "found"),
		attribute.Int64("scan.windows", 2),
		attribute.Bool("scan.throttled", false),
	)
	span.End()

	tt.AssertSpanExists(t, "scanner.ScanFile")
	tt.AssertSpanAttribute(t, "scanner.ScanFile", "scan.outcome", "found")
	tt.AssertSpanAttribute(t, "scanner.ScanFile", "scan.windows", int64(2))
	tt.AssertSpanAttribute(t, "scanner.ScanFile", "scan.throttled", false)
	tt.AssertScanOutcome(t, "found")
	assert.Nil(t, tt.SpanByName("missing"))
	assert.Equal(t, []string{"scanner.ScanFile"}, tt.spanNames())
}

func TestTestTelemetry_Metrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	counter, err := tt.Meter("test").Int64Counter("pinrecover.http.requests")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	m, ok := tt.MetricReader.Find(ctx, "pinrecover.http.requests")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	_, ok = tt.MetricReader.Find(ctx, "absent")
	assert.False(t, ok)

	require.NoError(t, tt.MetricReader.ForceFlush(ctx))
	assert.Len(t, tt.MetricReader.Metrics(), 1)
	assert.NoError(t, tt.MetricReader.Shutdown(ctx))
}
