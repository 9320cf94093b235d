package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/errcode"
)

func TestBoxSchemaStoredInLocalUnitForm(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	box, err := env.graph.CreateBox(ctx, cell, "app-box", "https://unit.example/app")
	require.NoError(t, err)
	require.Equal(t, "personium-localunit:/app/", box.Schema)

	// Lookup succeeds in either scheme form.
	for _, schema := range []string{"https://unit.example/app/", "personium-localunit:/app/"} {
		found, err := env.graph.FindBoxBySchema(ctx, cell.ID, schema)
		require.NoError(t, err)
		require.NotNil(t, found, schema)
		require.Equal(t, box.ID, found.ID)
	}
}

func TestCreateRole_UnknownBox(t *testing.T) {
	env, _ := newTestEnv(t)
	cell := env.mustCell(t, "bob")

	_, err := env.graph.CreateRole(context.Background(), cell, "no-such-box", "admin")
	require.ErrorIs(t, err, errcode.BoxNotFound)
}

func TestLinkRelationExtCell_Idempotent(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)
	_, err = env.graph.CreateExtCell(ctx, cell, "https://unit.example/alice/")
	require.NoError(t, err)

	require.NoError(t, env.graph.LinkRelationExtCell(ctx, cell, "", "friend", "https://unit.example/alice/"))
	require.NoError(t, env.graph.LinkRelationExtCell(ctx, cell, "", "friend", "https://unit.example/alice/"))

	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, "relation-extcell", rel.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"https://unit.example/alice/"}, urls)
}

func TestLinkRelationRole(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)
	_, err = env.graph.CreateRole(ctx, cell, "", "reader")
	require.NoError(t, err)

	require.NoError(t, env.graph.LinkRelationRole(ctx, cell, "", "friend", "", "reader"))
	require.NoError(t, env.graph.LinkRelationRole(ctx, cell, "", "friend", "", "reader"))

	urls, err := env.graph.LinkedRoleURLs(ctx, cell, rel.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"https://unit.example/bob/__role/__/reader"}, urls)

	require.NoError(t, env.graph.UnlinkRelationRole(ctx, cell, "", "friend", "", "reader"))

	urls, err = env.graph.LinkedRoleURLs(ctx, cell, rel.ID)
	require.NoError(t, err)
	require.Empty(t, urls)

	// Unlinking an absent link is not an error.
	require.NoError(t, env.graph.UnlinkRelationRole(ctx, cell, "", "friend", "", "reader"))
}

func TestCreateExtCell_RejectsOpaqueURL(t *testing.T) {
	env, _ := newTestEnv(t)
	cell := env.mustCell(t, "bob")

	_, err := env.graph.CreateExtCell(context.Background(), cell, "mailto:alice@example.com")
	require.ErrorIs(t, err, errcode.RequestMalformed)
}
