package biz

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
)

func TestCommand_MessageReadUnread(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	m := env.mustReceive(t, cell, &message.Received{
		From:  "https://unit.example/alice/",
		Type:  message.TypeMessage,
		Title: "hello",
	})
	require.Equal(t, message.StatusUnread, m.Status)

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandRead))

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusRead, got.Status)

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandUnread))

	got, err = env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusUnread, got.Status)
}

func TestCommand_UnknownMessage(t *testing.T) {
	env, _ := newTestEnv(t)
	cell := env.mustCell(t, "bob")

	err := env.approval.Command(context.Background(), cell, "no-such-id", message.CommandRead)
	require.ErrorIs(t, err, errcode.MessageNotFound)
}

func TestCommand_InvalidForType(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	msg := env.mustReceive(t, cell, &message.Received{
		From:  "https://unit.example/alice/",
		Type:  message.TypeMessage,
		Title: "hello",
	})

	// Approval commands only apply to requests.
	err := env.approval.Command(ctx, cell, msg.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.MessageCommandInvalid)

	req := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	err = env.approval.Command(ctx, cell, req.ID, message.CommandRead)
	require.ErrorIs(t, err, errcode.MessageCommandInvalid)

	err = env.approval.Command(ctx, cell, req.ID, message.Command("archive"))
	require.ErrorIs(t, err, errcode.MessageCommandInvalid)
}

func TestApprove_RelationAddByName(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandApproved))

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusApproved, got.Status)

	// ExtCell is created on demand and linked.
	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRelationExtCell, rel.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"https://unit.example/alice/"}, urls)

	// A second command on the terminal message is rejected.
	err = env.approval.Command(ctx, cell, m.ID, message.CommandRejected)
	require.ErrorIs(t, err, errcode.MessageCommandInvalid)
}

func TestApprove_RelationAbsent(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "missing",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	err := env.approval.Command(ctx, cell, m.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.RequestEntityNotExists)

	// The message stays pending and nothing was created.
	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusNone, got.Status)

	ec, err := env.store.GetExtCellByURL(ctx, cell.ID, "https://unit.example/alice/")
	require.NoError(t, err)
	require.Nil(t, ec)
}

func TestApprove_RoleAddByClassURL(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.graph.CreateBox(ctx, cell, "app-box", "https://unit.example/app/")
	require.NoError(t, err)

	role, err := env.graph.CreateRole(ctx, cell, "app-box", "member")
	require.NoError(t, err)

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRoleAdd,
			ClassURL:    "https://unit.example/app/__role/__/member",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandApproved))

	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRoleExtCell, role.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"https://unit.example/alice/"}, urls)
}

func TestApprove_ClassURLWithoutBox(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRoleAdd,
			ClassURL:    "https://unit.example/unknown-app/__role/__/member",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	err := env.approval.Command(ctx, cell, m.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.BoxForClassURLNotExists)
}

func TestApprove_SecondObjectConflictAborts(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{
			{
				RequestType: message.RequestRelationAdd,
				Name:        "friend",
				TargetURL:   "https://unit.example/alice/",
			},
			{
				RequestType: message.RequestRoleAdd,
				Name:        "missing",
				TargetURL:   "https://unit.example/alice/",
			},
		},
	})

	err = env.approval.Command(ctx, cell, m.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.RequestEntityNotExists)

	// The first object must not have been applied.
	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRelationExtCell, rel.ID)
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestApprove_RelationRemove(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)
	_, err = env.graph.CreateExtCell(ctx, cell, "https://unit.example/alice/")
	require.NoError(t, err)
	require.NoError(t, env.graph.LinkRelationExtCell(ctx, cell, "", "friend", "https://unit.example/alice/"))

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationRemove,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandApproved))

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusApproved, got.Status)

	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRelationExtCell, rel.ID)
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestApprove_RemoveAbsentLink(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)

	// No ExtCell is registered for the target at all.
	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationRemove,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	err = env.approval.Command(ctx, cell, m.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.RequestEntityNotExists)

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusNone, got.Status)

	// The ExtCell exists but was never linked to the relation.
	_, err = env.graph.CreateExtCell(ctx, cell, "https://unit.example/alice/")
	require.NoError(t, err)

	err = env.approval.Command(ctx, cell, m.ID, message.CommandApproved)
	require.ErrorIs(t, err, errcode.RequestEntityNotExists)

	got, err = env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusNone, got.Status)
}

func TestReject_NeverTouchesGraph(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	rel, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	require.NoError(t, env.approval.Command(ctx, cell, m.ID, message.CommandRejected))

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.Equal(t, message.StatusRejected, got.Status)

	urls, err := env.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRelationExtCell, rel.ID)
	require.NoError(t, err)
	require.Empty(t, urls)

	ec, err := env.store.GetExtCellByURL(ctx, cell.ID, "https://unit.example/alice/")
	require.NoError(t, err)
	require.Nil(t, ec)
}

func TestApprove_ConcurrentSingleWinner(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.graph.CreateRelation(ctx, cell, "", "friend")
	require.NoError(t, err)

	m := env.mustReceive(t, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})

	var wg sync.WaitGroup

	errs := make([]error, 2)
	cmds := []message.Command{message.CommandApproved, message.CommandRejected}

	for i := range cmds {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[i] = env.approval.Command(ctx, cell, m.ID, cmds[i])
		}()
	}

	wg.Wait()

	winners := 0

	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, errcode.MessageCommandInvalid)
		}
	}

	require.Equal(t, 1, winners)

	got, err := env.messages.GetReceived(ctx, cell, m.ID)
	require.NoError(t, err)
	require.True(t, got.Status.Terminal())
}
