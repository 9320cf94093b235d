package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/message"
)

func TestReceive_Validation(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	tests := []struct {
		name string
		msg  message.Received
	}{
		{name: "missing from", msg: message.Received{Type: message.TypeMessage}},
		{name: "unknown type", msg: message.Received{From: "https://unit.example/alice/", Type: "broadcast"}},
		{
			name: "message with request objects",
			msg: message.Received{
				From: "https://unit.example/alice/",
				Type: message.TypeMessage,
				RequestObjects: []message.RequestObject{{
					RequestType: message.RequestRelationAdd,
					Name:        "friend",
					TargetURL:   "https://unit.example/alice/",
				}},
			},
		},
		{
			name: "request without request objects",
			msg:  message.Received{From: "https://unit.example/alice/", Type: message.TypeRequest},
		},
		{
			name: "request object with both name and class url",
			msg: message.Received{
				From: "https://unit.example/alice/",
				Type: message.TypeRequest,
				RequestObjects: []message.RequestObject{{
					RequestType: message.RequestRelationAdd,
					Name:        "friend",
					ClassURL:    "https://unit.example/app/__relation/__/friend",
					TargetURL:   "https://unit.example/alice/",
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.messages.Receive(ctx, cell, &tt.msg)
			require.ErrorIs(t, err, errcode.RequestMalformed)
		})
	}
}

func TestReceive_AssignsIDAndStatus(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	m, err := env.messages.Receive(ctx, cell, &message.Received{
		From:  "https://unit.example/alice/",
		Type:  message.TypeMessage,
		Title: "hi",
	})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, message.StatusUnread, m.Status)

	req, err := env.messages.Receive(ctx, cell, &message.Received{
		From: "https://unit.example/alice/",
		Type: message.TypeRequest,
		RequestObjects: []message.RequestObject{{
			RequestType: message.RequestRelationAdd,
			Name:        "friend",
			TargetURL:   "https://unit.example/alice/",
		}},
	})
	require.NoError(t, err)
	require.Equal(t, message.StatusNone, req.Status)
}

func TestSend_FanOutRecordsResults(t *testing.T) {
	env, deliverer := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "alice")

	deliverer.failFor["https://unit.example/carol/"] = true

	sent, err := env.messages.Send(ctx, cell, &message.Sent{
		To:    "https://unit.example/bob/, https://unit.example/carol/",
		Type:  message.TypeMessage,
		Title: "hi",
	})
	require.NoError(t, err)
	require.Len(t, sent.Results, 2)

	byTo := map[string]message.Result{}
	for _, r := range sent.Results {
		byTo[r.To] = r
	}

	require.Equal(t, "201", byTo["https://unit.example/bob/"].Code)
	require.Equal(t, "503", byTo["https://unit.example/carol/"].Code)
	require.NotEmpty(t, byTo["https://unit.example/carol/"].Reason)

	// A failed recipient never fails the send; the record is persisted.
	got, err := env.messages.GetSent(ctx, cell, sent.ID)
	require.NoError(t, err)
	require.Len(t, got.Results, 2)
}

func TestSend_ToRelationExpansion(t *testing.T) {
	env, deliverer := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "alice")

	_, err := env.graph.CreateRelation(ctx, cell, "", "friends")
	require.NoError(t, err)

	for _, u := range []string{"https://unit.example/bob/", "https://unit.example/carol/"} {
		_, err := env.graph.CreateExtCell(ctx, cell, u)
		require.NoError(t, err)
		require.NoError(t, env.graph.LinkRelationExtCell(ctx, cell, "", "friends", u))
	}

	sent, err := env.messages.Send(ctx, cell, &message.Sent{
		ToRelation: "friends",
		Type:       message.TypeMessage,
		Title:      "hi all",
	})
	require.NoError(t, err)
	require.Len(t, sent.Results, 2)
	require.ElementsMatch(t,
		[]string{"https://unit.example/bob/", "https://unit.example/carol/"},
		deliverer.recipients())
}

func TestSend_NoRecipients(t *testing.T) {
	env, _ := newTestEnv(t)
	cell := env.mustCell(t, "alice")

	_, err := env.messages.Send(context.Background(), cell, &message.Sent{
		Type:  message.TypeMessage,
		Title: "hi",
	})
	require.ErrorIs(t, err, errcode.RequestMalformed)
}
