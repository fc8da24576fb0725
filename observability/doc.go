// Package observability provides OpenTelemetry tracing and metrics for
// chainkit pipelines.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultConfig("my-pipeline"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "summarize")
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-pipeline"))
//	metrics.RecordNode(ctx, "summarize", observability.StatusOK, duration)
//
// node.WithTracing and node.WithMetrics wrap any unit with both.
package observability
