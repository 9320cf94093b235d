package biz

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/server/delivery"
	"github.com/looplj/cellhub/internal/storage"
)

type MessageServiceParams struct {
	fx.In

	Store      storage.Store
	Graph      *GraphService
	Dispatcher *delivery.Dispatcher
	Config     Config
}

// MessageService owns the inbox and outbox: inbound receive, outbound send
// with fan-out, and plain reads.
type MessageService struct {
	store      storage.Store
	graph      *GraphService
	dispatcher *delivery.Dispatcher
	unitBase   string
}

func NewMessageService(params MessageServiceParams) *MessageService {
	return &MessageService{
		store:      params.Store,
		graph:      params.Graph,
		dispatcher: params.Dispatcher,
		unitBase:   params.Config.Unit.BaseURL,
	}
}

// Receive validates an inbound message and stores it in the cell's inbox
// with its initial status.
func (s *MessageService) Receive(ctx context.Context, cell *graph.Cell, m *message.Received) (*message.Received, error) {
	if err := validateIncoming(m); err != nil {
		return nil, err
	}

	stored := *m
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	stored.Status = message.InitialStatus(stored.Type)

	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.store.CreateReceived(ctx, cell.ID, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// Send expands the recipient set, delivers to each recipient and records
// the sent message with one result per recipient. Delivery failures end up
// as failure results, never as a send error.
func (s *MessageService) Send(ctx context.Context, cell *graph.Cell, m *message.Sent) (*message.Sent, error) {
	if m.Type != message.TypeMessage && m.Type != message.TypeRequest {
		return nil, errcode.RequestMalformed.WithParams("Type")
	}

	if m.Type == message.TypeRequest {
		if len(m.RequestObjects) == 0 {
			return nil, errcode.RequestMalformed.WithParams("RequestObjects")
		}

		for _, ro := range m.RequestObjects {
			if err := ro.Validate(); err != nil {
				return nil, err
			}
		}
	}

	recipients, err := s.expandRecipients(ctx, cell, m)
	if err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		return nil, errcode.RequestMalformed.WithParams("To/ToRelation")
	}

	sent := *m
	sent.ID = uuid.NewString()

	now := time.Now().UTC()
	sent.CreatedAt = now
	sent.UpdatedAt = now

	outbound := &message.Received{
		ID:             sent.ID,
		From:           cell.URL(s.unitBase),
		Type:           sent.Type,
		Schema:         sent.Schema,
		Title:          sent.Title,
		Body:           sent.Body,
		Priority:       sent.Priority,
		RequestObjects: sent.RequestObjects,
		InReplyTo:      sent.InReplyTo,
	}

	sent.Results = s.dispatcher.Dispatch(ctx, recipients, outbound)

	if err := s.store.CreateSent(ctx, cell.ID, &sent); err != nil {
		return nil, err
	}

	return &sent, nil
}

// expandRecipients merges the literal To list with the ExtCells linked to
// ToRelation, deduplicated in order.
func (s *MessageService) expandRecipients(ctx context.Context, cell *graph.Cell, m *message.Sent) ([]string, error) {
	var recipients []string

	for _, to := range strings.Split(m.To, ",") {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, xuri.EnsureTrailingSlash(to))
		}
	}

	if m.ToRelation != "" {
		rel, err := s.graph.GetRelation(ctx, cell, m.BoxName, m.ToRelation)
		if err != nil {
			return nil, err
		}

		linked, err := s.graph.LinkedExtCellURLs(ctx, cell, graph.LinkRelationExtCell, rel.ID)
		if err != nil {
			return nil, err
		}

		recipients = append(recipients, linked...)
	}

	return lo.Uniq(recipients), nil
}

func (s *MessageService) GetReceived(ctx context.Context, cell *graph.Cell, id string) (*message.Received, error) {
	m, err := s.store.GetReceived(ctx, cell.ID, id)
	if err != nil {
		return nil, err
	}

	if m == nil {
		return nil, errcode.MessageNotFound.WithParams(id)
	}

	return m, nil
}

func (s *MessageService) ListReceived(ctx context.Context, cell *graph.Cell) ([]*message.Received, error) {
	return s.store.ListReceived(ctx, cell.ID)
}

func (s *MessageService) GetSent(ctx context.Context, cell *graph.Cell, id string) (*message.Sent, error) {
	m, err := s.store.GetSent(ctx, cell.ID, id)
	if err != nil {
		return nil, err
	}

	if m == nil {
		return nil, errcode.MessageNotFound.WithParams(id)
	}

	return m, nil
}

func (s *MessageService) ListSent(ctx context.Context, cell *graph.Cell) ([]*message.Sent, error) {
	return s.store.ListSent(ctx, cell.ID)
}

func validateIncoming(m *message.Received) error {
	if m.From == "" {
		return errcode.RequestMalformed.WithParams("From")
	}

	switch m.Type {
	case message.TypeMessage:
		if len(m.RequestObjects) > 0 {
			return errcode.RequestMalformed.WithParams("RequestObjects")
		}
	case message.TypeRequest:
		if len(m.RequestObjects) == 0 {
			return errcode.RequestMalformed.WithParams("RequestObjects")
		}

		for _, ro := range m.RequestObjects {
			if err := ro.Validate(); err != nil {
				return err
			}
		}
	default:
		return errcode.RequestMalformed.WithParams("Type")
	}

	return nil
}
