package tracing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/looplj/cellhub/internal/contexts"
)

const (
	DefaultTraceHeader   = "CH-Trace-Id"
	DefaultRequestHeader = "CH-Request-Id"
)

type Config struct {
	TraceHeader   string `conf:"trace_header" yaml:"trace_header" json:"trace_header"`
	RequestHeader string `conf:"request_header" yaml:"request_header" json:"request_header"`
}

// GenerateTraceID generate trace id, format as ch-{{uuid}}.
func GenerateTraceID() string {
	id := uuid.New()
	return fmt.Sprintf("ch-%s", id.String())
}

// GenerateRequestID generate request id, format as chr-{{uuid}}.
func GenerateRequestID() string {
	id := uuid.New()
	return fmt.Sprintf("chr-%s", id.String())
}

// WithTraceID store trace id to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return contexts.WithTraceID(ctx, traceID)
}

// GetTraceID get trace id from context.
func GetTraceID(ctx context.Context) (string, bool) {
	return contexts.GetTraceID(ctx)
}

// WithRequestID store request id to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return contexts.WithRequestID(ctx, requestID)
}

// GetRequestID get request id from context.
func GetRequestID(ctx context.Context) (string, bool) {
	return contexts.GetRequestID(ctx)
}

// WithOperationName store operation name to context.
func WithOperationName(ctx context.Context, name string) context.Context {
	return contexts.WithOperationName(ctx, name)
}

// GetOperationName get operation name from context.
func GetOperationName(ctx context.Context) (string, bool) {
	return contexts.GetOperationName(ctx)
}
