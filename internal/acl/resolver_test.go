package acl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/privilege"
)

type staticRoleFinder struct {
	roles map[string]*graph.Role
}

func (f staticRoleFinder) FindRoleByURL(_ context.Context, _ string, roleURL string) (*graph.Role, error) {
	return f.roles[strings.TrimSuffix(roleURL, "/")], nil
}

func TestPrincipalResolver_DropsDanglingRoles(t *testing.T) {
	cell := &graph.Cell{ID: "c1", Name: "cell1"}

	finder := staticRoleFinder{roles: map[string]*graph.Role{
		"https://unit.example/cell1/__role/__/role4": {ID: "r4", CellID: "c1", Name: "role4"},
	}}

	resolver := NewPrincipalResolver(unitBase, finder)

	resolved, err := resolver.Resolve(context.Background(), cell, []string{
		"https://unit.example/cell1/__role/__/role4",
		"https://unit.example/cell1/__role/__/deleted",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://unit.example/cell1/__role/__/role4"}, resolved)
}

func TestPrincipalResolver_DanglingRolesDeny(t *testing.T) {
	cell := &graph.Cell{ID: "c1", Name: "cell1"}
	resolver := NewPrincipalResolver(unitBase, staticRoleFinder{})

	a := &Acl{
		Base: "https://unit.example/cell1/__role/__/",
		Aces: []Ace{{
			Principal: Principal{Kind: PrincipalHref, Href: "deleted"},
			Grant:     []privilege.Privilege{privilege.Root},
		}},
	}

	resolved, err := resolver.Resolve(context.Background(), cell, []string{
		"https://unit.example/cell1/__role/__/deleted",
	})
	require.NoError(t, err)
	require.Empty(t, resolved)

	ev := NewEvaluator(unitBase)
	require.False(t, ev.Decide(Chain{Cell: a}, privilege.Read, resolved))
}
