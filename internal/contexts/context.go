package contexts

import (
	"context"

	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/token"
)

// ContextKey defines the context key type.
type ContextKey string

const (
	// containerContextKey is used to store the context container in the context.
	containerContextKey ContextKey = "context_container"
)

// WithCell stores the cell the request is addressed to.
func WithCell(ctx context.Context, cell *graph.Cell) context.Context {
	container := getContainer(ctx)
	container.Cell = cell

	return withContainer(ctx, container)
}

// GetCell retrieves the cell the request is addressed to.
func GetCell(ctx context.Context) (*graph.Cell, bool) {
	container := getContainer(ctx)
	return container.Cell, container.Cell != nil
}

// WithClaims stores the verified token claims of the caller.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	container := getContainer(ctx)
	container.Claims = claims

	return withContainer(ctx, container)
}

// GetClaims retrieves the verified token claims of the caller.
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	container := getContainer(ctx)
	return container.Claims, container.Claims != nil
}

// WithTraceID stores the trace id in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	container := getContainer(ctx)
	container.TraceID = &traceID

	return withContainer(ctx, container)
}

// GetTraceID retrieves the trace id from the context.
func GetTraceID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.TraceID != nil {
		return *container.TraceID, true
	}

	return "", false
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	container := getContainer(ctx)
	container.RequestID = &requestID

	return withContainer(ctx, container)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.RequestID != nil {
		return *container.RequestID, true
	}

	return "", false
}

// WithOperationName stores the operation name in the context.
func WithOperationName(ctx context.Context, name string) context.Context {
	container := getContainer(ctx)
	container.OperationName = &name

	return withContainer(ctx, container)
}

// GetOperationName retrieves the operation name from the context.
func GetOperationName(ctx context.Context) (string, bool) {
	container := getContainer(ctx)
	if container.OperationName != nil {
		return *container.OperationName, true
	}

	return "", false
}

// AddError records an error for access logging.
func AddError(ctx context.Context, err error) context.Context {
	container := getContainer(ctx)
	container.Errors = append(container.Errors, err)

	return withContainer(ctx, container)
}

// GetErrors retrieves the errors recorded on the context.
func GetErrors(ctx context.Context) []error {
	return getContainer(ctx).Errors
}
