// Package observability wires OpenTelemetry tracing and metrics into the
// rawes client.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("rawes"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("rawes"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("rawes"))
//
// Each client call is wrapped in a Call, which owns one span and the
// request counters:
//
//	ctx, call := observability.StartCall(ctx, metrics, "http", "GET", "tweets/_search")
//	defer call.End(ctx, status, err)
package observability
