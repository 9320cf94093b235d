package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/log"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/storage"
)

type ApprovalServiceParams struct {
	fx.In

	Store  storage.Store
	Config Config
}

// ApprovalService executes lifecycle commands on received messages. For
// Request approvals it applies every RequestObject to the trust graph and
// flips the status in one transaction; the status flip is a compare-and-set
// so concurrent commands on the same message resolve to a single winner.
type ApprovalService struct {
	store    storage.Store
	unitBase string
}

func NewApprovalService(params ApprovalServiceParams) *ApprovalService {
	return &ApprovalService{
		store:    params.Store,
		unitBase: params.Config.Unit.BaseURL,
	}
}

// Command applies cmd to the message. Unknown ids are 404; commands illegal
// for the message's type and current status are 400, including any command
// on an already approved or rejected request.
func (s *ApprovalService) Command(ctx context.Context, cell *graph.Cell, messageID string, cmd message.Command) error {
	if !cmd.Valid() {
		return errcode.MessageCommandInvalid.WithParams("Command")
	}

	m, err := s.store.GetReceived(ctx, cell.ID, messageID)
	if err != nil {
		return err
	}

	if m == nil {
		return errcode.MessageNotFound.WithParams(messageID)
	}

	next, err := message.NextStatus(m.Type, m.Status, cmd)
	if err != nil {
		return err
	}

	if m.Type == message.TypeRequest && cmd == message.CommandApproved {
		return s.approve(ctx, cell, m, next)
	}

	return s.flipStatus(ctx, cell.ID, m, next)
}

// approve resolves every request object before touching the graph, so a
// conflict on the third object leaves the first two unapplied.
func (s *ApprovalService) approve(ctx context.Context, cell *graph.Cell, m *message.Received, next message.Status) error {
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		resolved := make([]resolvedRequest, 0, len(m.RequestObjects))

		for _, ro := range m.RequestObjects {
			r, err := s.resolve(ctx, tx, cell, m.BoxName, ro)
			if err != nil {
				return err
			}

			resolved = append(resolved, r)
		}

		for _, r := range resolved {
			if err := s.apply(ctx, tx, cell, r); err != nil {
				return err
			}
		}

		ok, err := tx.UpdateReceivedStatus(ctx, cell.ID, m.ID, m.Status, next)
		if err != nil {
			return err
		}

		if !ok {
			return errcode.MessageCommandInvalid.WithParams("Command")
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info(ctx, "request message approved",
		log.String("cell", cell.Name),
		log.String("message_id", m.ID),
		log.Int("request_objects", len(m.RequestObjects)))

	return nil
}

func (s *ApprovalService) flipStatus(ctx context.Context, cellID string, m *message.Received, next message.Status) error {
	ok, err := s.store.UpdateReceivedStatus(ctx, cellID, m.ID, m.Status, next)
	if err != nil {
		return err
	}

	if !ok {
		return errcode.MessageCommandInvalid.WithParams("Command")
	}

	return nil
}

// resolvedRequest is a request object with its graph entity pinned down.
type resolvedRequest struct {
	requestType message.RequestType
	entityID    string
	targetURL   string
}

func (r resolvedRequest) linkKind() graph.LinkKind {
	if r.requestType.Relation() {
		return graph.LinkRelationExtCell
	}

	return graph.LinkRoleExtCell
}

// resolve maps a request object to the concrete Relation or Role it names.
// Name form is scoped to the message's own box; classUrl form goes through
// the box bound to the class URL's schema cell.
func (s *ApprovalService) resolve(ctx context.Context, tx storage.Store, cell *graph.Cell, msgBoxName string, ro message.RequestObject) (resolvedRequest, error) {
	out := resolvedRequest{
		requestType: ro.RequestType,
		targetURL:   xuri.EnsureTrailingSlash(ro.TargetURL),
	}

	boxName := msgBoxName
	name := ro.Name

	if ro.ClassURL != "" {
		kind := graph.ClassRole
		if ro.RequestType.Relation() {
			kind = graph.ClassRelation
		}

		parsed, ok := graph.ParseClassURL(xuri.ToHTTP(s.unitBase, ro.ClassURL), kind)
		if !ok {
			return out, errcode.RequestMalformed.WithParams("ClassUrl")
		}

		box, err := tx.GetBoxBySchema(ctx, cell.ID, xuri.ToLocalUnit(s.unitBase, parsed.SchemaURL))
		if err != nil {
			return out, err
		}

		if box == nil {
			return out, errcode.BoxForClassURLNotExists.WithParams(ro.ClassURL)
		}

		boxName = box.Name
		name = parsed.Name
	}

	entityID, err := s.lookupEntity(ctx, tx, cell.ID, ro.RequestType, boxName, name)
	if err != nil {
		return out, err
	}

	out.entityID = entityID

	if !ro.RequestType.Add() {
		if err := s.checkLink(ctx, tx, cell.ID, out); err != nil {
			return out, err
		}
	}

	return out, nil
}

// checkLink rejects a remove request whose target external cell or link is
// not registered, so the approval aborts with a conflict before any mutation.
func (s *ApprovalService) checkLink(ctx context.Context, tx storage.Store, cellID string, r resolvedRequest) error {
	ec, err := tx.GetExtCellByURL(ctx, cellID, r.targetURL)
	if err != nil {
		return err
	}

	if ec == nil {
		return errcode.RequestEntityNotExists.WithParams(r.targetURL)
	}

	exists, err := tx.LinkExists(ctx, graph.Link{
		CellID: cellID,
		Kind:   r.linkKind(),
		FromID: r.entityID,
		ToID:   ec.ID,
	})
	if err != nil {
		return err
	}

	if !exists {
		return errcode.RequestEntityNotExists.WithParams(r.targetURL)
	}

	return nil
}

func (s *ApprovalService) lookupEntity(ctx context.Context, tx storage.Store, cellID string, t message.RequestType, boxName, name string) (string, error) {
	if t.Relation() {
		rel, err := tx.GetRelation(ctx, cellID, boxName, name)
		if err != nil {
			return "", err
		}

		if rel == nil {
			return "", errcode.RequestEntityNotExists.WithParams(name)
		}

		return rel.ID, nil
	}

	role, err := tx.GetRole(ctx, cellID, boxName, name)
	if err != nil {
		return "", err
	}

	if role == nil {
		return "", errcode.RequestEntityNotExists.WithParams(name)
	}

	return role.ID, nil
}

// apply links or unlinks the resolved entity and the target external cell.
// Add creates the ExtCell when it is not registered yet and links
// idempotently. Remove existence was checked during resolve; deleting an
// already deleted link here only happens when one message removes the same
// link twice, and stays a no-op.
func (s *ApprovalService) apply(ctx context.Context, tx storage.Store, cell *graph.Cell, r resolvedRequest) error {
	kind := r.linkKind()

	ec, err := tx.GetExtCellByURL(ctx, cell.ID, r.targetURL)
	if err != nil {
		return err
	}

	if !r.requestType.Add() {
		if ec == nil {
			return nil
		}

		_, err := tx.DeleteLink(ctx, graph.Link{
			CellID: cell.ID,
			Kind:   kind,
			FromID: r.entityID,
			ToID:   ec.ID,
		})

		return err
	}

	if ec == nil {
		now := time.Now().UTC()
		ec = &graph.ExtCell{
			ID:        uuid.NewString(),
			CellID:    cell.ID,
			URL:       r.targetURL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.CreateExtCell(ctx, ec); err != nil {
			return err
		}
	}

	return tx.UpsertLink(ctx, graph.Link{
		CellID: cell.ID,
		Kind:   kind,
		FromID: r.entityID,
		ToID:   ec.ID,
	})
}
