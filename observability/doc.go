// Package observability wires OpenTelemetry tracing and metrics for the
// dispatch pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.TracerConfigFrom(&cfg.ServiceConfig, cfg.Telemetry.Tracing))
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, "mediator.send", "orders.CreateOrder")
//	defer func() { op.End(err) }()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.MeterConfigFrom(&cfg.ServiceConfig, cfg.Telemetry.Metrics))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewDispatchMetrics(observability.Meter("orders"))
//	metrics.RecordDispatch(ctx, "orders.CreateOrder", "request", err, elapsed)
package observability
