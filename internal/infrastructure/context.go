package infrastructure

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

// traceIDKey stores the trace id used to correlate log lines of one request
// or pipeline run.
const traceIDKey contextKey = "trace_id"

// WithTraceID returns a context carrying the trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace id from the context, or "".
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}
