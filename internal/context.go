package internal

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey carries the id of the pending input request, when one is
	// outstanding.
	RequestIDKey contextKey = "request_id"
	// FlowIDKey carries the id of the flow whose run produced the stream.
	FlowIDKey contextKey = "flow_id"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetFlowID retrieves the flow ID from context, or "" when absent.
func GetFlowID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(FlowIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFlowID adds a flow ID to the context
func WithFlowID(ctx context.Context, flowID string) context.Context {
	return context.WithValue(ctx, FlowIDKey, flowID)
}
