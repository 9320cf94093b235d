package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), DialectSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: DialectPostgres}
	require.Equal(t,
		`SELECT 1 FROM links WHERE cell_id = $1 AND kind = $2`,
		s.rebind(`SELECT 1 FROM links WHERE cell_id = ? AND kind = ?`),
	)

	s = &Store{dialect: DialectSQLite}
	require.Equal(t, `SELECT ?`, s.rebind(`SELECT ?`))
}

func TestCellAndBoxCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateCell(ctx, &graph.Cell{ID: "c1", Name: "cell1"}))
	require.ErrorIs(t, s.CreateCell(ctx, &graph.Cell{ID: "c2", Name: "cell1"}), errcode.EntityAlreadyExists)

	cell, err := s.GetCellByName(ctx, "cell1")
	require.NoError(t, err)
	require.Equal(t, "c1", cell.ID)

	require.NoError(t, s.CreateBox(ctx, &graph.Box{ID: "b1", CellID: "c1", Name: "box1", Schema: "personium-localunit:/app/"}))

	box, err := s.GetBoxBySchema(ctx, "c1", "personium-localunit:/app/")
	require.NoError(t, err)
	require.Equal(t, "box1", box.Name)

	none, err := s.GetBoxBySchema(ctx, "c1", "")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateCell(ctx, &graph.Cell{ID: "c1", Name: "cell1"}))
	require.NoError(t, s.CreateRelation(ctx, &graph.Relation{ID: "rel1", CellID: "c1", Name: "r"}))
	require.NoError(t, s.CreateExtCell(ctx, &graph.ExtCell{ID: "e1", CellID: "c1", URL: "https://other.example/x/"}))

	link := graph.Link{CellID: "c1", Kind: graph.LinkRelationExtCell, FromID: "rel1", ToID: "e1"}

	require.NoError(t, s.UpsertLink(ctx, link))
	require.NoError(t, s.UpsertLink(ctx, link))

	links, err := s.ListLinks(ctx, "c1", graph.LinkRelationExtCell, "rel1")
	require.NoError(t, err)
	require.Len(t, links, 1)

	require.NoError(t, s.DeleteRelation(ctx, "c1", "", "r"))

	exists, err := s.LinkExists(ctx, link)
	require.NoError(t, err)
	require.False(t, exists)

	removed, err := s.DeleteLink(ctx, link)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestAclRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	missing, err := s.LoadAcl(ctx, "c1", "")
	require.NoError(t, err)
	require.Nil(t, missing)

	a := &acl.Acl{
		Base:               "personium-localunit:/cell1/__role/__/",
		RequireSchemaAuthz: acl.SchemaAuthzPublic,
		Aces: []acl.Ace{{
			Principal: acl.Principal{Kind: acl.PrincipalHref, Href: "role4"},
			Grant:     []privilege.Privilege{privilege.Auth, privilege.AuthRead, privilege.Read},
		}},
	}

	require.NoError(t, s.SaveAcl(ctx, "c1", "", a))

	loaded, err := s.LoadAcl(ctx, "c1", "")
	require.NoError(t, err)
	require.Equal(t, a, loaded)

	// Save replaces the whole document.
	a.Aces = a.Aces[:0]
	require.NoError(t, s.SaveAcl(ctx, "c1", "", a))

	loaded, err = s.LoadAcl(ctx, "c1", "")
	require.NoError(t, err)
	require.True(t, loaded.Empty())
}

func TestReceivedMessageCAS(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateReceived(ctx, "c1", &message.Received{
		ID:     "m1",
		Type:   message.TypeRequest,
		Status: message.StatusNone,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "r",
			TargetURL:   "https://other.example/x/",
		}},
	}))

	ok, err := s.UpdateReceivedStatus(ctx, "c1", "m1", message.StatusNone, message.StatusApproved)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.UpdateReceivedStatus(ctx, "c1", "m1", message.StatusNone, message.StatusRejected)
	require.NoError(t, err)
	require.False(t, ok)

	m, err := s.GetReceived(ctx, "c1", "m1")
	require.NoError(t, err)
	require.Equal(t, message.StatusApproved, m.Status)
	require.Len(t, m.RequestObjects, 1)
}

func TestInTxRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CreateCell(ctx, &graph.Cell{ID: "c1", Name: "cell1"}))

	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateRelation(ctx, &graph.Relation{ID: "rel1", CellID: "c1", Name: "r"}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	rel, err := s.GetRelation(ctx, "c1", "", "r")
	require.NoError(t, err)
	require.Nil(t, rel)
}
