package runner

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/modkit/config"
	"github.com/kbukum/modkit/observability"
)

const telemetryShutdownTimeout = 5 * time.Second

// initTelemetry starts OTLP trace and metric export for cfg and returns
// the runner metrics plus a func flushing both providers.
func initTelemetry(ctx context.Context, cfg *config.Config) (*observability.Metrics, func() error, error) {
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.Name,
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}

	mc := observability.DefaultMeterConfig(cfg.Name)
	mc.Environment = cfg.Environment
	mc.Endpoint = cfg.Tracing.Endpoint
	mc.Insecure = cfg.Tracing.Insecure
	mp, err := observability.InitMeter(ctx, mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return stderrors.Join(tp.Shutdown(sctx), mp.Shutdown(sctx))
	}

	metrics, err := observability.NewMetrics(observability.Meter("github.com/kbukum/modkit/runner"))
	if err != nil {
		_ = shutdown()
		return nil, nil, err
	}
	return metrics, shutdown, nil
}
