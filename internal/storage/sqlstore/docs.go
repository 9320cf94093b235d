package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/message"
)

// ACL documents and request-object lists are stored as JSON blobs; they are
// read and written whole, never queried into.

func (s *Store) LoadAcl(ctx context.Context, cellID, boxName string) (*acl.Acl, error) {
	var doc string

	err := s.queryRow(ctx,
		`SELECT doc FROM acls WHERE cell_id = ? AND box_name = ?`,
		cellID, boxName,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("load acl: %w", err)
	}

	var a acl.Acl
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return nil, fmt.Errorf("decode acl: %w", err)
	}

	return &a, nil
}

func (s *Store) SaveAcl(ctx context.Context, cellID, boxName string, a *acl.Acl) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode acl: %w", err)
	}

	stmt := `INSERT INTO acls (cell_id, box_name, doc) VALUES (?, ?, ?)
		ON CONFLICT (cell_id, box_name) DO UPDATE SET doc = excluded.doc`
	if s.dialect == DialectMySQL {
		stmt = `INSERT INTO acls (cell_id, box_name, doc) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE doc = VALUES(doc)`
	}

	if _, err := s.exec(ctx, stmt, cellID, boxName, string(doc)); err != nil {
		return fmt.Errorf("save acl: %w", err)
	}

	return nil
}

func (s *Store) CreateReceived(ctx context.Context, cellID string, m *message.Received) error {
	objects, err := json.Marshal(m.RequestObjects)
	if err != nil {
		return fmt.Errorf("encode request objects: %w", err)
	}

	_, err = s.exec(ctx,
		`INSERT INTO received_messages
			(cell_id, id, from_url, msg_type, box_name, msg_schema, title, body, priority, status, request_objects, in_reply_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cellID, m.ID, m.From, string(m.Type), m.BoxName, m.Schema, m.Title, m.Body,
		m.Priority, string(m.Status), string(objects), m.InReplyTo, m.CreatedAt, m.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(m.ID)
	}

	if err != nil {
		return fmt.Errorf("create received message: %w", err)
	}

	return nil
}

func (s *Store) GetReceived(ctx context.Context, cellID, id string) (*message.Received, error) {
	var (
		m       message.Received
		objects string
	)

	err := s.queryRow(ctx,
		`SELECT id, from_url, msg_type, box_name, msg_schema, title, body, priority, status, request_objects, in_reply_to, created_at, updated_at
		FROM received_messages WHERE cell_id = ? AND id = ?`,
		cellID, id,
	).Scan(&m.ID, &m.From, &m.Type, &m.BoxName, &m.Schema, &m.Title, &m.Body,
		&m.Priority, &m.Status, &objects, &m.InReplyTo, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan received message: %w", err)
	}

	if err := json.Unmarshal([]byte(objects), &m.RequestObjects); err != nil {
		return nil, fmt.Errorf("decode request objects: %w", err)
	}

	return &m, nil
}

func (s *Store) ListReceived(ctx context.Context, cellID string) ([]*message.Received, error) {
	rows, err := s.query(ctx,
		`SELECT id, from_url, msg_type, box_name, msg_schema, title, body, priority, status, request_objects, in_reply_to, created_at, updated_at
		FROM received_messages WHERE cell_id = ? ORDER BY created_at DESC, id`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	defer rows.Close()

	var out []*message.Received

	for rows.Next() {
		var (
			m       message.Received
			objects string
		)

		if err := rows.Scan(&m.ID, &m.From, &m.Type, &m.BoxName, &m.Schema, &m.Title, &m.Body,
			&m.Priority, &m.Status, &objects, &m.InReplyTo, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan received message: %w", err)
		}

		if err := json.Unmarshal([]byte(objects), &m.RequestObjects); err != nil {
			return nil, fmt.Errorf("decode request objects: %w", err)
		}

		out = append(out, &m)
	}

	return out, rows.Err()
}

func (s *Store) UpdateReceivedStatus(ctx context.Context, cellID, id string, from, to message.Status) (bool, error) {
	res, err := s.exec(ctx,
		`UPDATE received_messages SET status = ? WHERE cell_id = ? AND id = ? AND status = ?`,
		string(to), cellID, id, string(from))
	if err != nil {
		return false, fmt.Errorf("update message status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update message status: %w", err)
	}

	return n > 0, nil
}

func (s *Store) CreateSent(ctx context.Context, cellID string, m *message.Sent) error {
	objects, err := json.Marshal(m.RequestObjects)
	if err != nil {
		return fmt.Errorf("encode request objects: %w", err)
	}

	results, err := json.Marshal(m.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	_, err = s.exec(ctx,
		`INSERT INTO sent_messages
			(cell_id, id, to_urls, to_relation, msg_type, box_name, msg_schema, title, body, priority, request_objects, results, in_reply_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cellID, m.ID, m.To, m.ToRelation, string(m.Type), m.BoxName, m.Schema, m.Title, m.Body,
		m.Priority, string(objects), string(results), m.InReplyTo, m.CreatedAt, m.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(m.ID)
	}

	if err != nil {
		return fmt.Errorf("create sent message: %w", err)
	}

	return nil
}

func (s *Store) GetSent(ctx context.Context, cellID, id string) (*message.Sent, error) {
	var (
		m       message.Sent
		objects string
		results string
	)

	err := s.queryRow(ctx,
		`SELECT id, to_urls, to_relation, msg_type, box_name, msg_schema, title, body, priority, request_objects, results, in_reply_to, created_at, updated_at
		FROM sent_messages WHERE cell_id = ? AND id = ?`,
		cellID, id,
	).Scan(&m.ID, &m.To, &m.ToRelation, &m.Type, &m.BoxName, &m.Schema, &m.Title, &m.Body,
		&m.Priority, &objects, &results, &m.InReplyTo, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan sent message: %w", err)
	}

	if err := json.Unmarshal([]byte(objects), &m.RequestObjects); err != nil {
		return nil, fmt.Errorf("decode request objects: %w", err)
	}

	if err := json.Unmarshal([]byte(results), &m.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	return &m, nil
}

func (s *Store) ListSent(ctx context.Context, cellID string) ([]*message.Sent, error) {
	rows, err := s.query(ctx,
		`SELECT id, to_urls, to_relation, msg_type, box_name, msg_schema, title, body, priority, request_objects, results, in_reply_to, created_at, updated_at
		FROM sent_messages WHERE cell_id = ? ORDER BY created_at DESC, id`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	defer rows.Close()

	var out []*message.Sent

	for rows.Next() {
		var (
			m       message.Sent
			objects string
			results string
		)

		if err := rows.Scan(&m.ID, &m.To, &m.ToRelation, &m.Type, &m.BoxName, &m.Schema, &m.Title, &m.Body,
			&m.Priority, &objects, &results, &m.InReplyTo, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sent message: %w", err)
		}

		if err := json.Unmarshal([]byte(objects), &m.RequestObjects); err != nil {
			return nil, fmt.Errorf("decode request objects: %w", err)
		}

		if err := json.Unmarshal([]byte(results), &m.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}

		out = append(out, &m)
	}

	return out, rows.Err()
}
