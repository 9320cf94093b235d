package acl

import (
	"context"

	"github.com/looplj/cellhub/internal/graph"
)

// RoleFinder looks up a Role on a Cell by its class URL. A nil Role with a
// nil error means the role does not exist.
type RoleFinder interface {
	FindRoleByURL(ctx context.Context, cellID string, roleURL string) (*graph.Role, error)
}

// PrincipalResolver reduces the role URLs a token carries to the ones that
// still exist on the target Cell. Roles deleted after the token was issued
// drop out silently; the caller is then evaluated with whatever remains.
type PrincipalResolver struct {
	unitBase string
	roles    RoleFinder
}

func NewPrincipalResolver(unitBase string, roles RoleFinder) *PrincipalResolver {
	return &PrincipalResolver{unitBase: unitBase, roles: roles}
}

// Resolve returns the subset of roleURLs present in the relationship graph
// of cell, in their canonical URL form.
func (r *PrincipalResolver) Resolve(ctx context.Context, cell *graph.Cell, roleURLs []string) ([]string, error) {
	resolved := make([]string, 0, len(roleURLs))

	for _, u := range roleURLs {
		role, err := r.roles.FindRoleByURL(ctx, cell.ID, u)
		if err != nil {
			return nil, err
		}

		if role == nil {
			continue
		}

		resolved = append(resolved, role.URL(cell.URL(r.unitBase)))
	}

	return resolved, nil
}
