package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/modkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName string
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter initializes the global meter provider.
// The caller shuts the returned provider down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the runner.
type Metrics struct {
	passTotal       metric.Int64Counter
	passDuration    metric.Float64Histogram
	postActionTotal metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	passTotal, err := meter.Int64Counter("modkit.pass.total",
		metric.WithDescription("Run passes executed, by pass and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating modkit.pass.total counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram("modkit.pass.duration",
		metric.WithDescription("Duration of run passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating modkit.pass.duration histogram: %w", err)
	}

	postActionTotal, err := meter.Int64Counter("modkit.post_action.total",
		metric.WithDescription("Modules whose post-action ran, by module"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating modkit.post_action.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("modkit.error.total",
		metric.WithDescription("Run failures by error code and pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating modkit.error.total counter: %w", err)
	}

	return &Metrics{
		passTotal:       passTotal,
		passDuration:    passDuration,
		postActionTotal: postActionTotal,
		errorTotal:      errorTotal,
	}, nil
}

// RecordPass records one completed pass over the module queue.
func (m *Metrics) RecordPass(ctx context.Context, pass, status string, modules int, duration time.Duration) {
	if m == nil {
		return
	}
	m.passTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pass", pass),
		attribute.String("status", status),
	))
	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pass", pass),
		attribute.Int("modules", modules),
	))
}

// RecordPostAction records that fqn's post-action ran.
func (m *Metrics) RecordPostAction(ctx context.Context, fqn string) {
	if m == nil {
		return
	}
	m.postActionTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("module", fqn)))
}

// RecordError records a failure by error code and pass.
func (m *Metrics) RecordError(ctx context.Context, code, pass string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("pass", pass),
	))
}
