package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/authz"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/pkg/xcache"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/storage"
	"github.com/looplj/cellhub/internal/token"
)

type AclServiceParams struct {
	fx.In

	Store  storage.Store
	Cache  xcache.Cache[acl.Acl]
	Config Config
}

// AclService owns ACL documents and the access decision built on them.
// Documents are stored in localunit form; the service resolves them back to
// http form on read unless the caller asked for the stored form.
type AclService struct {
	store     storage.Store
	cache     xcache.Cache[acl.Acl]
	group     singleflight.Group
	evaluator *acl.Evaluator
	resolver  *acl.PrincipalResolver
	gate      *authz.Gate
	unitBase  string
}

func NewAclService(params AclServiceParams) *AclService {
	unitBase := params.Config.Unit.BaseURL

	return &AclService{
		store:     params.Store,
		cache:     params.Cache,
		evaluator: acl.NewEvaluator(unitBase),
		resolver:  acl.NewPrincipalResolver(unitBase, roleFinder{store: params.Store, unitBase: unitBase}),
		gate:      authz.NewGate(unitBase),
		unitBase:  unitBase,
	}
}

// roleFinder resolves role URLs in either scheme form to stored roles.
// URLs that do not have the role URL shape resolve to nothing.
type roleFinder struct {
	store    storage.Store
	unitBase string
}

func (f roleFinder) FindRoleByURL(ctx context.Context, cellID, roleURL string) (*graph.Role, error) {
	parsed, ok := graph.ParseClassURL(xuri.ToHTTP(f.unitBase, roleURL), graph.ClassRole)
	if !ok {
		return nil, nil
	}

	return f.store.GetRole(ctx, cellID, parsed.BoxName(), parsed.Name)
}

func aclCacheKey(cellID, boxName string) string {
	return "acl:" + cellID + ":" + boxName
}

// SetAcl validates and stores the ACL document of the cell root (boxName
// "") or a box root.
func (s *AclService) SetAcl(ctx context.Context, cell *graph.Cell, boxName string, body []byte) error {
	a, err := acl.ParseXML(body)
	if err != nil {
		return err
	}

	if boxName != "" {
		box, err := s.store.GetBox(ctx, cell.ID, boxName)
		if err != nil {
			return err
		}

		if box == nil {
			return errcode.BoxNotFound.WithParams(boxName)
		}
	}

	if a.Base == "" {
		segment := boxName
		if segment == "" {
			segment = "__"
		}

		a.Base = cell.URL(s.unitBase) + "__role/" + segment + "/"
	}

	boxExists := func(name string) bool {
		box, err := s.store.GetBox(ctx, cell.ID, name)

		return err == nil && box != nil
	}

	if err := acl.CheckBoxConsistency(a, s.unitBase, boxName, boxExists); err != nil {
		return err
	}

	acl.Normalize(a, s.unitBase)

	if err := s.store.SaveAcl(ctx, cell.ID, boxName, a); err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, aclCacheKey(cell.ID, boxName))

	return nil
}

// GetAcl returns the stored ACL with hrefs in http form, or in the stored
// localunit form when localForm is set. Nil when no document exists.
func (s *AclService) GetAcl(ctx context.Context, cell *graph.Cell, boxName string, localForm bool) (*acl.Acl, error) {
	a, err := s.loadAcl(ctx, cell.ID, boxName)
	if err != nil {
		return nil, err
	}

	if a == nil {
		return nil, nil
	}

	out := *a
	out.Aces = append([]acl.Ace(nil), a.Aces...)

	if !localForm {
		acl.Resolve(&out, s.unitBase)
	}

	return &out, nil
}

// loadAcl reads through the cache; concurrent loads of the same document
// collapse into one storage read.
func (s *AclService) loadAcl(ctx context.Context, cellID, boxName string) (*acl.Acl, error) {
	key := aclCacheKey(cellID, boxName)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		a, err := s.store.LoadAcl(ctx, cellID, boxName)
		if err != nil {
			return nil, err
		}

		if a != nil {
			_ = s.cache.Set(ctx, key, *a)
		}

		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load acl: %w", err)
	}

	a, _ := v.(*acl.Acl)

	return a, nil
}

func (s *AclService) loadChain(ctx context.Context, cell *graph.Cell, boxName string) (acl.Chain, error) {
	var chain acl.Chain

	cellAcl, err := s.loadAcl(ctx, cell.ID, "")
	if err != nil {
		return chain, err
	}

	chain.Cell = cellAcl

	if boxName != "" {
		boxAcl, err := s.loadAcl(ctx, cell.ID, boxName)
		if err != nil {
			return chain, err
		}

		chain.Box = boxAcl
	}

	return chain, nil
}

// Authorize runs the full admission sequence for one request: schema
// authorization on the effective ACL's policy, then the privilege decision
// over the caller's surviving roles. Unit admins pass unconditionally.
//
// requestSchema is the optional explicit schema URL from the request; it
// may use either the http or localunit form.
func (s *AclService) Authorize(ctx context.Context, cell *graph.Cell, boxName string, claims *token.Claims, required privilege.Privilege, requestSchema string) error {
	if claims != nil && claims.UnitAdmin {
		return nil
	}

	chain, err := s.loadChain(ctx, cell, boxName)
	if err != nil {
		return err
	}

	policy := acl.SchemaAuthzUnset
	if effective := chain.Effective(); effective != nil {
		policy = effective.RequireSchemaAuthz
	}

	if err := s.gate.Check(policy, claims, requestSchema); err != nil {
		return err
	}

	var roles []string

	if claims != nil {
		roles, err = s.resolver.Resolve(ctx, cell, claims.Roles)
		if err != nil {
			return err
		}

		if claims.HasSchema() {
			roles = append(roles, s.schemaBoxRoles(ctx, cell, claims)...)
		}
	}

	if s.evaluator.Decide(chain, required, roles) {
		return nil
	}

	if claims == nil {
		return errcode.AuthnRequired
	}

	return errcode.PrivilegeLacking.WithParams(string(required))
}

// schemaBoxRoles maps box-scoped role claims of an app token onto the box
// bound to the token's schema. Tokens carry role names relative to the app
// box; without a matching box they grant nothing.
func (s *AclService) schemaBoxRoles(ctx context.Context, cell *graph.Cell, claims *token.Claims) []string {
	schema := xuri.ToLocalUnit(s.unitBase, xuri.EnsureTrailingSlash(claims.SchemaURL()))

	box, err := s.store.GetBoxBySchema(ctx, cell.ID, schema)
	if err != nil || box == nil {
		return nil
	}

	cellURL := cell.URL(s.unitBase)

	var out []string

	for _, name := range claims.Roles {
		if xuri.IsHTTP(name) || xuri.IsLocalUnit(name) {
			continue
		}

		role, err := s.store.GetRole(ctx, cell.ID, box.Name, name)
		if err != nil || role == nil {
			continue
		}

		out = append(out, role.URL(cellURL))
	}

	return out
}
