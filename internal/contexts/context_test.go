package contexts

import (
	"context"
	"errors"
	"testing"

	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/token"
)

func TestWithCell(t *testing.T) {
	ctx := context.Background()
	cell := &graph.Cell{ID: "c1", Name: "alice"}

	newCtx := WithCell(ctx, cell)
	if newCtx == ctx {
		t.Error("WithCell should return a new context")
	}

	got, ok := GetCell(newCtx)
	if !ok {
		t.Error("GetCell should return true for stored cell")
	}

	if got == nil || got.Name != "alice" {
		t.Errorf("GetCell returned %+v, want alice", got)
	}

	if _, ok := GetCell(ctx); ok {
		t.Error("GetCell should return false on the original context")
	}
}

func TestWithClaims(t *testing.T) {
	ctx := context.Background()
	claims := &token.Claims{Subject: "https://unit.example/alice/#me"}

	newCtx := WithClaims(ctx, claims)

	got, ok := GetClaims(newCtx)
	if !ok || got.Subject != claims.Subject {
		t.Errorf("GetClaims returned %+v, %v", got, ok)
	}
}

func TestTraceAndRequestIDs(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetTraceID(ctx); ok {
		t.Error("GetTraceID should return false on an empty context")
	}

	ctx = WithTraceID(ctx, "ch-123")
	ctx = WithRequestID(ctx, "chr-456")
	ctx = WithOperationName(ctx, "GET /:cell")

	if id, ok := GetTraceID(ctx); !ok || id != "ch-123" {
		t.Errorf("GetTraceID returned %q, %v", id, ok)
	}

	if id, ok := GetRequestID(ctx); !ok || id != "chr-456" {
		t.Errorf("GetRequestID returned %q, %v", id, ok)
	}

	if name, ok := GetOperationName(ctx); !ok || name != "GET /:cell" {
		t.Errorf("GetOperationName returned %q, %v", name, ok)
	}
}

func TestContainerSharedAcrossWrites(t *testing.T) {
	// Writes after the container is attached must be visible through the
	// earlier context value.
	ctx := WithTraceID(context.Background(), "ch-1")

	_ = WithCell(ctx, &graph.Cell{ID: "c1", Name: "bob"})

	if cell, ok := GetCell(ctx); !ok || cell.Name != "bob" {
		t.Errorf("GetCell returned %+v, %v after in-place write", cell, ok)
	}
}

func TestAddError(t *testing.T) {
	ctx := AddError(context.Background(), errors.New("boom"))
	ctx = AddError(ctx, errors.New("again"))

	errs := GetErrors(ctx)
	if len(errs) != 2 {
		t.Fatalf("GetErrors returned %d errors, want 2", len(errs))
	}
}
