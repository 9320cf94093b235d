package sqlstore

import (
	"context"
	"fmt"
)

// The DDL sticks to the portable subset of the three dialects; column
// types follow the loosest common denominator.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cells (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		name       VARCHAR(128) NOT NULL,
		owner_url  VARCHAR(512) NOT NULL DEFAULT '',
		created_at TIMESTAMP    NULL,
		updated_at TIMESTAMP    NULL,
		CONSTRAINT uq_cells_name UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS boxes (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		cell_id    VARCHAR(64)  NOT NULL,
		name       VARCHAR(128) NOT NULL,
		box_schema VARCHAR(512) NOT NULL DEFAULT '',
		created_at TIMESTAMP    NULL,
		updated_at TIMESTAMP    NULL,
		CONSTRAINT uq_boxes_cell_name UNIQUE (cell_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		cell_id    VARCHAR(64)  NOT NULL,
		box_name   VARCHAR(128) NOT NULL DEFAULT '',
		name       VARCHAR(128) NOT NULL,
		created_at TIMESTAMP    NULL,
		updated_at TIMESTAMP    NULL,
		CONSTRAINT uq_roles_identity UNIQUE (cell_id, box_name, name)
	)`,
	`CREATE TABLE IF NOT EXISTS relations (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		cell_id    VARCHAR(64)  NOT NULL,
		box_name   VARCHAR(128) NOT NULL DEFAULT '',
		name       VARCHAR(128) NOT NULL,
		created_at TIMESTAMP    NULL,
		updated_at TIMESTAMP    NULL,
		CONSTRAINT uq_relations_identity UNIQUE (cell_id, box_name, name)
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id            VARCHAR(64)  NOT NULL PRIMARY KEY,
		cell_id       VARCHAR(64)  NOT NULL,
		name          VARCHAR(128) NOT NULL,
		password_hash VARCHAR(128) NOT NULL,
		created_at    TIMESTAMP    NULL,
		updated_at    TIMESTAMP    NULL,
		CONSTRAINT uq_accounts_cell_name UNIQUE (cell_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS ext_cells (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		cell_id    VARCHAR(64)  NOT NULL,
		url        VARCHAR(512) NOT NULL,
		created_at TIMESTAMP    NULL,
		updated_at TIMESTAMP    NULL,
		CONSTRAINT uq_ext_cells_url UNIQUE (cell_id, url)
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		cell_id VARCHAR(64) NOT NULL,
		kind    VARCHAR(32) NOT NULL,
		from_id VARCHAR(64) NOT NULL,
		to_id   VARCHAR(64) NOT NULL,
		PRIMARY KEY (cell_id, kind, from_id, to_id)
	)`,
	`CREATE TABLE IF NOT EXISTS acls (
		cell_id  VARCHAR(64)  NOT NULL,
		box_name VARCHAR(128) NOT NULL DEFAULT '',
		doc      TEXT         NOT NULL,
		PRIMARY KEY (cell_id, box_name)
	)`,
	`CREATE TABLE IF NOT EXISTS received_messages (
		cell_id         VARCHAR(64)  NOT NULL,
		id              VARCHAR(128) NOT NULL,
		from_url        VARCHAR(512) NOT NULL DEFAULT '',
		msg_type        VARCHAR(16)  NOT NULL,
		box_name        VARCHAR(128) NOT NULL DEFAULT '',
		msg_schema      VARCHAR(512) NOT NULL DEFAULT '',
		title           VARCHAR(256) NOT NULL DEFAULT '',
		body            TEXT         NOT NULL,
		priority        INTEGER      NOT NULL DEFAULT 3,
		status          VARCHAR(16)  NOT NULL,
		request_objects TEXT         NOT NULL,
		in_reply_to     VARCHAR(128) NOT NULL DEFAULT '',
		created_at      TIMESTAMP    NULL,
		updated_at      TIMESTAMP    NULL,
		PRIMARY KEY (cell_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS sent_messages (
		cell_id         VARCHAR(64)  NOT NULL,
		id              VARCHAR(128) NOT NULL,
		to_urls         TEXT         NOT NULL,
		to_relation     VARCHAR(128) NOT NULL DEFAULT '',
		msg_type        VARCHAR(16)  NOT NULL,
		box_name        VARCHAR(128) NOT NULL DEFAULT '',
		msg_schema      VARCHAR(512) NOT NULL DEFAULT '',
		title           VARCHAR(256) NOT NULL DEFAULT '',
		body            TEXT         NOT NULL,
		priority        INTEGER      NOT NULL DEFAULT 3,
		request_objects TEXT         NOT NULL,
		results         TEXT         NOT NULL,
		in_reply_to     VARCHAR(128) NOT NULL DEFAULT '',
		created_at      TIMESTAMP    NULL,
		updated_at      TIMESTAMP    NULL,
		PRIMARY KEY (cell_id, id)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
