// Package observability wires OpenTelemetry tracing and metrics for module runs.
//
// InitTracer and InitMeter install OTLP/HTTP exporters on the global
// providers. Without them, StartSpan and the Metrics instruments fall back
// to the OpenTelemetry no-op implementations, so the runner can always
// call them.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("modkit"))
//	defer tp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("modkit"))
//	r, err := runner.New(roots, runner.WithMetrics(metrics))
package observability
