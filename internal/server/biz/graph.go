package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/pkg/xcache"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/storage"
)

type GraphServiceParams struct {
	fx.In

	Store    storage.Store
	BoxCache xcache.Cache[graph.Box]
	Config   Config
}

// GraphService manages the per-cell trust graph: boxes, roles, relations,
// external cells and the links between them.
type GraphService struct {
	store    storage.Store
	boxCache xcache.Cache[graph.Box]
	unitBase string
}

func NewGraphService(params GraphServiceParams) *GraphService {
	return &GraphService{
		store:    params.Store,
		boxCache: params.BoxCache,
		unitBase: params.Config.Unit.BaseURL,
	}
}

func boxSchemaKey(cellID, schema string) string {
	return "box-schema:" + cellID + ":" + schema
}

// --- boxes ---

// CreateBox stores a box. A schema URL addressed at this unit is stored in
// localunit form so later lookups are scheme-insensitive.
func (s *GraphService) CreateBox(ctx context.Context, cell *graph.Cell, name, schema string) (*graph.Box, error) {
	if name == "" {
		return nil, errcode.RequestMalformed.WithParams("Name")
	}

	if schema != "" {
		schema = xuri.ToLocalUnit(s.unitBase, xuri.EnsureTrailingSlash(schema))
	}

	now := time.Now().UTC()
	box := &graph.Box{
		ID:        uuid.NewString(),
		CellID:    cell.ID,
		Name:      name,
		Schema:    schema,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateBox(ctx, box); err != nil {
		return nil, err
	}

	return box, nil
}

func (s *GraphService) GetBox(ctx context.Context, cell *graph.Cell, name string) (*graph.Box, error) {
	box, err := s.store.GetBox(ctx, cell.ID, name)
	if err != nil {
		return nil, err
	}

	if box == nil {
		return nil, errcode.BoxNotFound.WithParams(name)
	}

	return box, nil
}

// FindBoxBySchema locates the box bound to the given schema cell URL, in
// either scheme form. Nil when no box matches.
func (s *GraphService) FindBoxBySchema(ctx context.Context, cellID, schemaURL string) (*graph.Box, error) {
	schema := xuri.ToLocalUnit(s.unitBase, xuri.EnsureTrailingSlash(schemaURL))

	key := boxSchemaKey(cellID, schema)
	if cached, err := s.boxCache.Get(ctx, key); err == nil {
		return &cached, nil
	}

	box, err := s.store.GetBoxBySchema(ctx, cellID, schema)
	if err != nil {
		return nil, err
	}

	if box != nil {
		_ = s.boxCache.Set(ctx, key, *box)
	}

	return box, nil
}

func (s *GraphService) ListBoxes(ctx context.Context, cell *graph.Cell) ([]*graph.Box, error) {
	return s.store.ListBoxes(ctx, cell.ID)
}

func (s *GraphService) DeleteBox(ctx context.Context, cell *graph.Cell, name string) error {
	box, err := s.store.GetBox(ctx, cell.ID, name)
	if err != nil {
		return err
	}

	if box == nil {
		return errcode.BoxNotFound.WithParams(name)
	}

	if box.Schema != "" {
		_ = s.boxCache.Delete(ctx, boxSchemaKey(cell.ID, box.Schema))
	}

	return s.store.DeleteBox(ctx, cell.ID, name)
}

// --- roles ---

func (s *GraphService) CreateRole(ctx context.Context, cell *graph.Cell, boxName, name string) (*graph.Role, error) {
	if name == "" {
		return nil, errcode.RequestMalformed.WithParams("Name")
	}

	if err := s.checkBoxScope(ctx, cell, boxName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role := &graph.Role{
		ID:        uuid.NewString(),
		CellID:    cell.ID,
		BoxName:   boxName,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *GraphService) GetRole(ctx context.Context, cell *graph.Cell, boxName, name string) (*graph.Role, error) {
	role, err := s.store.GetRole(ctx, cell.ID, boxName, name)
	if err != nil {
		return nil, err
	}

	if role == nil {
		return nil, errcode.EntityNotFound.WithParams("Role", name)
	}

	return role, nil
}

func (s *GraphService) ListRoles(ctx context.Context, cell *graph.Cell) ([]*graph.Role, error) {
	return s.store.ListRoles(ctx, cell.ID)
}

// DeleteRole removes the role and its links. ACL documents that still
// reference it are left alone; evaluation treats them as dangling.
func (s *GraphService) DeleteRole(ctx context.Context, cell *graph.Cell, boxName, name string) error {
	if _, err := s.GetRole(ctx, cell, boxName, name); err != nil {
		return err
	}

	return s.store.DeleteRole(ctx, cell.ID, boxName, name)
}

// --- relations ---

func (s *GraphService) CreateRelation(ctx context.Context, cell *graph.Cell, boxName, name string) (*graph.Relation, error) {
	if name == "" {
		return nil, errcode.RequestMalformed.WithParams("Name")
	}

	if err := s.checkBoxScope(ctx, cell, boxName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rel := &graph.Relation{
		ID:        uuid.NewString(),
		CellID:    cell.ID,
		BoxName:   boxName,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateRelation(ctx, rel); err != nil {
		return nil, err
	}

	return rel, nil
}

func (s *GraphService) GetRelation(ctx context.Context, cell *graph.Cell, boxName, name string) (*graph.Relation, error) {
	rel, err := s.store.GetRelation(ctx, cell.ID, boxName, name)
	if err != nil {
		return nil, err
	}

	if rel == nil {
		return nil, errcode.EntityNotFound.WithParams("Relation", name)
	}

	return rel, nil
}

func (s *GraphService) ListRelations(ctx context.Context, cell *graph.Cell) ([]*graph.Relation, error) {
	return s.store.ListRelations(ctx, cell.ID)
}

func (s *GraphService) DeleteRelation(ctx context.Context, cell *graph.Cell, boxName, name string) error {
	if _, err := s.GetRelation(ctx, cell, boxName, name); err != nil {
		return err
	}

	return s.store.DeleteRelation(ctx, cell.ID, boxName, name)
}

// --- ext cells ---

func (s *GraphService) CreateExtCell(ctx context.Context, cell *graph.Cell, url string) (*graph.ExtCell, error) {
	if !xuri.IsHTTP(url) && !xuri.IsLocalUnit(url) {
		return nil, errcode.RequestMalformed.WithParams("Url")
	}

	now := time.Now().UTC()
	ec := &graph.ExtCell{
		ID:        uuid.NewString(),
		CellID:    cell.ID,
		URL:       xuri.EnsureTrailingSlash(url),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateExtCell(ctx, ec); err != nil {
		return nil, err
	}

	return ec, nil
}

func (s *GraphService) GetExtCell(ctx context.Context, cell *graph.Cell, url string) (*graph.ExtCell, error) {
	ec, err := s.store.GetExtCellByURL(ctx, cell.ID, xuri.EnsureTrailingSlash(url))
	if err != nil {
		return nil, err
	}

	if ec == nil {
		return nil, errcode.EntityNotFound.WithParams("ExtCell", url)
	}

	return ec, nil
}

func (s *GraphService) ListExtCells(ctx context.Context, cell *graph.Cell) ([]*graph.ExtCell, error) {
	return s.store.ListExtCells(ctx, cell.ID)
}

func (s *GraphService) DeleteExtCell(ctx context.Context, cell *graph.Cell, url string) error {
	ec, err := s.GetExtCell(ctx, cell, url)
	if err != nil {
		return err
	}

	return s.store.DeleteExtCell(ctx, cell.ID, ec.ID)
}

// --- links ---

// LinkRelationExtCell links a relation to an external cell; creating an
// existing link succeeds without duplicating.
func (s *GraphService) LinkRelationExtCell(ctx context.Context, cell *graph.Cell, boxName, relationName, extCellURL string) error {
	rel, err := s.GetRelation(ctx, cell, boxName, relationName)
	if err != nil {
		return err
	}

	ec, err := s.GetExtCell(ctx, cell, extCellURL)
	if err != nil {
		return err
	}

	return s.store.UpsertLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkRelationExtCell,
		FromID: rel.ID,
		ToID:   ec.ID,
	})
}

// UnlinkRelationExtCell removes the link; an absent link is not an error.
func (s *GraphService) UnlinkRelationExtCell(ctx context.Context, cell *graph.Cell, boxName, relationName, extCellURL string) error {
	rel, err := s.GetRelation(ctx, cell, boxName, relationName)
	if err != nil {
		return err
	}

	ec, err := s.GetExtCell(ctx, cell, extCellURL)
	if err != nil {
		return err
	}

	_, err = s.store.DeleteLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkRelationExtCell,
		FromID: rel.ID,
		ToID:   ec.ID,
	})

	return err
}

// LinkRelationRole links a relation to a role of the same cell; creating an
// existing link succeeds without duplicating.
func (s *GraphService) LinkRelationRole(ctx context.Context, cell *graph.Cell, relBoxName, relationName, roleBoxName, roleName string) error {
	rel, err := s.GetRelation(ctx, cell, relBoxName, relationName)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, cell, roleBoxName, roleName)
	if err != nil {
		return err
	}

	return s.store.UpsertLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkRelationRole,
		FromID: rel.ID,
		ToID:   role.ID,
	})
}

// UnlinkRelationRole removes the link; an absent link is not an error.
func (s *GraphService) UnlinkRelationRole(ctx context.Context, cell *graph.Cell, relBoxName, relationName, roleBoxName, roleName string) error {
	rel, err := s.GetRelation(ctx, cell, relBoxName, relationName)
	if err != nil {
		return err
	}

	role, err := s.GetRole(ctx, cell, roleBoxName, roleName)
	if err != nil {
		return err
	}

	_, err = s.store.DeleteLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   graph.LinkRelationRole,
		FromID: rel.ID,
		ToID:   role.ID,
	})

	return err
}

// LinkedRoleURLs lists the roles linked to a relation.
func (s *GraphService) LinkedRoleURLs(ctx context.Context, cell *graph.Cell, fromID string) ([]string, error) {
	links, err := s.store.ListLinks(ctx, cell.ID, graph.LinkRelationRole, fromID)
	if err != nil {
		return nil, err
	}

	roles, err := s.store.ListRoles(ctx, cell.ID)
	if err != nil {
		return nil, err
	}

	cellURL := cell.URL(s.unitBase)
	byID := lo.SliceToMap(roles, func(r *graph.Role) (string, *graph.Role) {
		return r.ID, r
	})

	return lo.FilterMap(links, func(l graph.Link, _ int) (string, bool) {
		role, ok := byID[l.ToID]
		if !ok {
			return "", false
		}

		return role.URL(cellURL), true
	}), nil
}

// LinkedExtCellURLs lists the external cells linked to a relation or role.
func (s *GraphService) LinkedExtCellURLs(ctx context.Context, cell *graph.Cell, kind graph.LinkKind, fromID string) ([]string, error) {
	links, err := s.store.ListLinks(ctx, cell.ID, kind, fromID)
	if err != nil {
		return nil, err
	}

	extCells, err := s.store.ListExtCells(ctx, cell.ID)
	if err != nil {
		return nil, err
	}

	byID := lo.SliceToMap(extCells, func(ec *graph.ExtCell) (string, *graph.ExtCell) {
		return ec.ID, ec
	})

	return lo.FilterMap(links, func(l graph.Link, _ int) (string, bool) {
		ec, ok := byID[l.ToID]
		if !ok {
			return "", false
		}

		return ec.URL, true
	}), nil
}

func (s *GraphService) checkBoxScope(ctx context.Context, cell *graph.Cell, boxName string) error {
	if boxName == "" {
		return nil
	}

	box, err := s.store.GetBox(ctx, cell.ID, boxName)
	if err != nil {
		return err
	}

	if box == nil {
		return errcode.BoxNotFound.WithParams(boxName)
	}

	return nil
}
