package contexts

import (
	"context"

	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/token"
)

// contextContainer holds every per-request value. A single container is
// attached to the context once so later writes do not grow the context
// chain.
type contextContainer struct {
	TraceID       *string
	RequestID     *string
	OperationName *string
	Cell          *graph.Cell
	Claims        *token.Claims
	Errors        []error
}

// getContainer retrieves the existing container from the context, or
// creates a fresh one when none is attached yet.
func getContainer(ctx context.Context) *contextContainer {
	if container, ok := ctx.Value(containerContextKey).(*contextContainer); ok {
		return container
	}

	return &contextContainer{}
}

// withContainer stores the container in the context (if not already stored).
func withContainer(ctx context.Context, container *contextContainer) context.Context {
	if ctx.Value(containerContextKey) == nil {
		return context.WithValue(ctx, containerContextKey, container)
	}

	return ctx
}
