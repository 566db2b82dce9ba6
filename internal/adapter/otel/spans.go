package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "switchyard"

// StartDecisionSpan starts a span for one routing decision.
func StartDecisionSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision.route",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
		),
	)
}

// StartConsultationSpan starts a span for a consultation lifecycle operation.
func StartConsultationSpan(ctx context.Context, op, consultationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "consultation."+op,
		trace.WithAttributes(
			attribute.String("consultation.id", consultationID),
		),
	)
}

// StartSweepSpan starts a span for one timeout sweeper pass.
func StartSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "consultation.sweep")
}

// StartTaskForceSpan starts a span for a task force operation.
func StartTaskForceSpan(ctx context.Context, op, taskForceID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "taskforce."+op,
		trace.WithAttributes(
			attribute.String("taskforce.id", taskForceID),
		),
	)
}
