package biz

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/storage"
)

var cellNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,127}$`)

type CellServiceParams struct {
	fx.In

	Store  storage.Store
	Config Config
}

// CellService manages tenant cells.
type CellService struct {
	store    storage.Store
	unitBase string
}

func NewCellService(params CellServiceParams) *CellService {
	return &CellService{store: params.Store, unitBase: params.Config.Unit.BaseURL}
}

func (s *CellService) CreateCell(ctx context.Context, name, ownerURL string) (*graph.Cell, error) {
	if !cellNamePattern.MatchString(name) {
		return nil, errcode.RequestMalformed.WithParams("Name")
	}

	now := time.Now().UTC()
	cell := &graph.Cell{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerURL:  ownerURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCell(ctx, cell); err != nil {
		return nil, err
	}

	return cell, nil
}

// ResolveCell loads a cell by name; unknown names surface 404.
func (s *CellService) ResolveCell(ctx context.Context, name string) (*graph.Cell, error) {
	cell, err := s.store.GetCellByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if cell == nil {
		return nil, errcode.CellNotFound.WithParams(name)
	}

	return cell, nil
}

func (s *CellService) ListCells(ctx context.Context) ([]*graph.Cell, error) {
	return s.store.ListCells(ctx)
}

func (s *CellService) DeleteCell(ctx context.Context, name string) error {
	cell, err := s.ResolveCell(ctx, name)
	if err != nil {
		return err
	}

	return s.store.DeleteCell(ctx, cell.ID)
}
