package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecordingTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("modkit")
	if cfg.ServiceName != "modkit" {
		t.Errorf("expected ServiceName 'modkit', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("modkit")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestStartSpan_Attributes(t *testing.T) {
	exporter := withRecordingTracer(t)

	ctx, span := StartSpan(context.Background(), "runner.compute")
	SetSpanAttribute(ctx, AttrPass, "compute")
	SetSpanAttribute(ctx, AttrModules, 3)
	SetSpanAttribute(ctx, AttrPending, []string{"a", "b"})
	SetSpanAttribute(ctx, "other", struct{ X int }{1})
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "runner.compute" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
	if len(spans[0].Attributes) != 4 {
		t.Errorf("expected 4 attributes, got %d", len(spans[0].Attributes))
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := withRecordingTracer(t)

	ctx, span := StartSpan(context.Background(), "runner.meta")
	SetSpanError(ctx, fmt.Errorf("boom"))
	SetSpanError(ctx, nil)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(spans[0].Events))
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background()) //nolint:errcheck // test cleanup

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordPass(ctx, "compute", "ok", 3, 20*time.Millisecond)
	metrics.RecordPostAction(ctx, "app.Sales")
	metrics.RecordPostAction(ctx, "app.Sales")
	metrics.RecordError(ctx, "MODULE_FAILED", "meta")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			got[m.Name] = true
			if m.Name == "modkit.post_action.total" {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Errorf("unexpected post_action data %+v", m.Data)
				}
			}
		}
	}
	for _, name := range []string{"modkit.pass.total", "modkit.pass.duration", "modkit.post_action.total", "modkit.error.total"} {
		if !got[name] {
			t.Errorf("expected metric %s to be collected", name)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordPass(ctx, "compute", "ok", 1, time.Millisecond)
	m.RecordPostAction(ctx, "x")
	m.RecordError(ctx, "INTERNAL_ERROR", "force")
}

func TestNewMetrics_Noop(t *testing.T) {
	if _, err := NewMetrics(noop.NewMeterProvider().Meter("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInitTracerSamplingRates(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	for _, rate := range []float64{1.0, 0.0, 0.5} {
		t.Run(fmt.Sprintf("rate=%v", rate), func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = rate
			tp, err := InitTracer(context.Background(), cfg)
			if err != nil {
				t.Fatalf("InitTracer: %v", err)
			}
			_ = tp.Shutdown(context.Background())
		})
	}
}

func TestInitMeter(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	mp, err := InitMeter(context.Background(), DefaultMeterConfig("test"))
	if err != nil {
		t.Fatalf("InitMeter: %v", err)
	}
	_ = mp.Shutdown(context.Background())
}
