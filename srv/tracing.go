package srv

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RecordError records an error on the span following OTel exception conventions.
// It adds an "exception" event with message, type, and stacktrace attributes,
// and sets the span status to Error.
func RecordError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}

	const maxStackSize = 4096
	stackBuf := make([]byte, maxStackSize)
	stackSize := runtime.Stack(stackBuf, false)

	span.AddEvent("exception",
		trace.WithAttributes(
			attribute.String("exception.type", "error"),
			attribute.String("exception.message", err.Error()),
			attribute.String("exception.stacktrace", string(stackBuf[:stackSize])),
		),
	)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSecurityEvent logs a rejected admin request and, when a span is
// recording, attaches the same event to it.
func RecordSecurityEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	event := "security." + name

	args := make([]any, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, string(a.Key), a.Value.Emit())
	}
	slog.WarnContext(ctx, event, args...)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(event, trace.WithAttributes(attrs...))
	}
}

// AddChangelogAttributes tags the request span with the mutation it carried.
func AddChangelogAttributes(r *http.Request, action, version string) {
	span := spanFromRequest(r)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String("changelog.action", action),
		attribute.String("changelog.version", version),
	)
}

func spanFromRequest(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}
