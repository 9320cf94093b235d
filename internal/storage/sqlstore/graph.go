package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
)

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}

	// Driver-specific duplicate-key errors share no sentinel; match on the
	// message the three drivers emit.
	msg := err.Error()

	for _, needle := range []string{"UNIQUE constraint", "duplicate key", "Duplicate entry"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}

	return false
}

// --- cells ---

func (s *Store) CreateCell(ctx context.Context, cell *graph.Cell) error {
	_, err := s.exec(ctx,
		`INSERT INTO cells (id, name, owner_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		cell.ID, cell.Name, cell.OwnerURL, cell.CreatedAt, cell.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(cell.Name)
	}

	if err != nil {
		return fmt.Errorf("create cell: %w", err)
	}

	return nil
}

func (s *Store) scanCell(row *sql.Row) (*graph.Cell, error) {
	var c graph.Cell

	err := row.Scan(&c.ID, &c.Name, &c.OwnerURL, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan cell: %w", err)
	}

	return &c, nil
}

func (s *Store) GetCell(ctx context.Context, id string) (*graph.Cell, error) {
	return s.scanCell(s.queryRow(ctx,
		`SELECT id, name, owner_url, created_at, updated_at FROM cells WHERE id = ?`, id))
}

func (s *Store) GetCellByName(ctx context.Context, name string) (*graph.Cell, error) {
	return s.scanCell(s.queryRow(ctx,
		`SELECT id, name, owner_url, created_at, updated_at FROM cells WHERE name = ?`, name))
}

func (s *Store) ListCells(ctx context.Context) ([]*graph.Cell, error) {
	rows, err := s.query(ctx,
		`SELECT id, name, owner_url, created_at, updated_at FROM cells ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	defer rows.Close()

	var out []*graph.Cell

	for rows.Next() {
		var c graph.Cell
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}

		out = append(out, &c)
	}

	return out, rows.Err()
}

func (s *Store) DeleteCell(ctx context.Context, id string) error {
	stmts := []string{
		`DELETE FROM boxes WHERE cell_id = ?`,
		`DELETE FROM roles WHERE cell_id = ?`,
		`DELETE FROM relations WHERE cell_id = ?`,
		`DELETE FROM accounts WHERE cell_id = ?`,
		`DELETE FROM ext_cells WHERE cell_id = ?`,
		`DELETE FROM links WHERE cell_id = ?`,
		`DELETE FROM acls WHERE cell_id = ?`,
		`DELETE FROM received_messages WHERE cell_id = ?`,
		`DELETE FROM sent_messages WHERE cell_id = ?`,
		`DELETE FROM cells WHERE id = ?`,
	}

	for _, stmt := range stmts {
		if _, err := s.exec(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete cell: %w", err)
		}
	}

	return nil
}

// --- boxes ---

func (s *Store) CreateBox(ctx context.Context, box *graph.Box) error {
	_, err := s.exec(ctx,
		`INSERT INTO boxes (id, cell_id, name, box_schema, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		box.ID, box.CellID, box.Name, box.Schema, box.CreatedAt, box.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(box.Name)
	}

	if err != nil {
		return fmt.Errorf("create box: %w", err)
	}

	return nil
}

func (s *Store) scanBox(row *sql.Row) (*graph.Box, error) {
	var b graph.Box

	err := row.Scan(&b.ID, &b.CellID, &b.Name, &b.Schema, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan box: %w", err)
	}

	return &b, nil
}

func (s *Store) GetBox(ctx context.Context, cellID, name string) (*graph.Box, error) {
	return s.scanBox(s.queryRow(ctx,
		`SELECT id, cell_id, name, box_schema, created_at, updated_at FROM boxes WHERE cell_id = ? AND name = ?`,
		cellID, name))
}

func (s *Store) GetBoxBySchema(ctx context.Context, cellID, schema string) (*graph.Box, error) {
	if schema == "" {
		return nil, nil
	}

	return s.scanBox(s.queryRow(ctx,
		`SELECT id, cell_id, name, box_schema, created_at, updated_at FROM boxes WHERE cell_id = ? AND box_schema = ?`,
		cellID, schema))
}

func (s *Store) ListBoxes(ctx context.Context, cellID string) ([]*graph.Box, error) {
	rows, err := s.query(ctx,
		`SELECT id, cell_id, name, box_schema, created_at, updated_at FROM boxes WHERE cell_id = ? ORDER BY name`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	defer rows.Close()

	var out []*graph.Box

	for rows.Next() {
		var b graph.Box
		if err := rows.Scan(&b.ID, &b.CellID, &b.Name, &b.Schema, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan box: %w", err)
		}

		out = append(out, &b)
	}

	return out, rows.Err()
}

func (s *Store) DeleteBox(ctx context.Context, cellID, name string) error {
	if _, err := s.exec(ctx, `DELETE FROM acls WHERE cell_id = ? AND box_name = ?`, cellID, name); err != nil {
		return fmt.Errorf("delete box acl: %w", err)
	}

	if _, err := s.exec(ctx, `DELETE FROM boxes WHERE cell_id = ? AND name = ?`, cellID, name); err != nil {
		return fmt.Errorf("delete box: %w", err)
	}

	return nil
}

// --- roles ---

func (s *Store) CreateRole(ctx context.Context, role *graph.Role) error {
	_, err := s.exec(ctx,
		`INSERT INTO roles (id, cell_id, box_name, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		role.ID, role.CellID, role.BoxName, role.Name, role.CreatedAt, role.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(role.Name)
	}

	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (s *Store) GetRole(ctx context.Context, cellID, boxName, name string) (*graph.Role, error) {
	var r graph.Role

	err := s.queryRow(ctx,
		`SELECT id, cell_id, box_name, name, created_at, updated_at FROM roles WHERE cell_id = ? AND box_name = ? AND name = ?`,
		cellID, boxName, name,
	).Scan(&r.ID, &r.CellID, &r.BoxName, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan role: %w", err)
	}

	return &r, nil
}

func (s *Store) ListRoles(ctx context.Context, cellID string) ([]*graph.Role, error) {
	rows, err := s.query(ctx,
		`SELECT id, cell_id, box_name, name, created_at, updated_at FROM roles WHERE cell_id = ? ORDER BY box_name, name`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []*graph.Role

	for rows.Next() {
		var r graph.Role
		if err := rows.Scan(&r.ID, &r.CellID, &r.BoxName, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}

		out = append(out, &r)
	}

	return out, rows.Err()
}

func (s *Store) DeleteRole(ctx context.Context, cellID, boxName, name string) error {
	role, err := s.GetRole(ctx, cellID, boxName, name)
	if err != nil || role == nil {
		return err
	}

	if err := s.deleteLinksOf(ctx, cellID, role.ID); err != nil {
		return err
	}

	if _, err := s.exec(ctx, `DELETE FROM roles WHERE id = ?`, role.ID); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	return nil
}

// --- relations ---

func (s *Store) CreateRelation(ctx context.Context, rel *graph.Relation) error {
	_, err := s.exec(ctx,
		`INSERT INTO relations (id, cell_id, box_name, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.CellID, rel.BoxName, rel.Name, rel.CreatedAt, rel.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(rel.Name)
	}

	if err != nil {
		return fmt.Errorf("create relation: %w", err)
	}

	return nil
}

func (s *Store) GetRelation(ctx context.Context, cellID, boxName, name string) (*graph.Relation, error) {
	var r graph.Relation

	err := s.queryRow(ctx,
		`SELECT id, cell_id, box_name, name, created_at, updated_at FROM relations WHERE cell_id = ? AND box_name = ? AND name = ?`,
		cellID, boxName, name,
	).Scan(&r.ID, &r.CellID, &r.BoxName, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan relation: %w", err)
	}

	return &r, nil
}

func (s *Store) ListRelations(ctx context.Context, cellID string) ([]*graph.Relation, error) {
	rows, err := s.query(ctx,
		`SELECT id, cell_id, box_name, name, created_at, updated_at FROM relations WHERE cell_id = ? ORDER BY box_name, name`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	defer rows.Close()

	var out []*graph.Relation

	for rows.Next() {
		var r graph.Relation
		if err := rows.Scan(&r.ID, &r.CellID, &r.BoxName, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}

		out = append(out, &r)
	}

	return out, rows.Err()
}

func (s *Store) DeleteRelation(ctx context.Context, cellID, boxName, name string) error {
	rel, err := s.GetRelation(ctx, cellID, boxName, name)
	if err != nil || rel == nil {
		return err
	}

	if err := s.deleteLinksOf(ctx, cellID, rel.ID); err != nil {
		return err
	}

	if _, err := s.exec(ctx, `DELETE FROM relations WHERE id = ?`, rel.ID); err != nil {
		return fmt.Errorf("delete relation: %w", err)
	}

	return nil
}

func (s *Store) deleteLinksOf(ctx context.Context, cellID, entityID string) error {
	_, err := s.exec(ctx,
		`DELETE FROM links WHERE cell_id = ? AND (from_id = ? OR to_id = ?)`,
		cellID, entityID, entityID)
	if err != nil {
		return fmt.Errorf("delete links: %w", err)
	}

	return nil
}

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, account *graph.Account) error {
	_, err := s.exec(ctx,
		`INSERT INTO accounts (id, cell_id, name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.CellID, account.Name, account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(account.Name)
	}

	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, cellID, name string) (*graph.Account, error) {
	var a graph.Account

	err := s.queryRow(ctx,
		`SELECT id, cell_id, name, password_hash, created_at, updated_at FROM accounts WHERE cell_id = ? AND name = ?`,
		cellID, name,
	).Scan(&a.ID, &a.CellID, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context, cellID string) ([]*graph.Account, error) {
	rows, err := s.query(ctx,
		`SELECT id, cell_id, name, password_hash, created_at, updated_at FROM accounts WHERE cell_id = ? ORDER BY name`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []*graph.Account

	for rows.Next() {
		var a graph.Account
		if err := rows.Scan(&a.ID, &a.CellID, &a.Name, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		out = append(out, &a)
	}

	return out, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, cellID, name string) error {
	account, err := s.GetAccount(ctx, cellID, name)
	if err != nil || account == nil {
		return err
	}

	if err := s.deleteLinksOf(ctx, cellID, account.ID); err != nil {
		return err
	}

	if _, err := s.exec(ctx, `DELETE FROM accounts WHERE id = ?`, account.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	return nil
}

// --- ext cells ---

func (s *Store) CreateExtCell(ctx context.Context, ec *graph.ExtCell) error {
	_, err := s.exec(ctx,
		`INSERT INTO ext_cells (id, cell_id, url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		ec.ID, ec.CellID, ec.URL, ec.CreatedAt, ec.UpdatedAt,
	)
	if isDuplicate(err) {
		return errcode.EntityAlreadyExists.WithParams(ec.URL)
	}

	if err != nil {
		return fmt.Errorf("create ext cell: %w", err)
	}

	return nil
}

func (s *Store) GetExtCellByURL(ctx context.Context, cellID, url string) (*graph.ExtCell, error) {
	var e graph.ExtCell

	err := s.queryRow(ctx,
		`SELECT id, cell_id, url, created_at, updated_at FROM ext_cells WHERE cell_id = ? AND url = ?`,
		cellID, url,
	).Scan(&e.ID, &e.CellID, &e.URL, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("scan ext cell: %w", err)
	}

	return &e, nil
}

func (s *Store) ListExtCells(ctx context.Context, cellID string) ([]*graph.ExtCell, error) {
	rows, err := s.query(ctx,
		`SELECT id, cell_id, url, created_at, updated_at FROM ext_cells WHERE cell_id = ? ORDER BY url`,
		cellID)
	if err != nil {
		return nil, fmt.Errorf("list ext cells: %w", err)
	}
	defer rows.Close()

	var out []*graph.ExtCell

	for rows.Next() {
		var e graph.ExtCell
		if err := rows.Scan(&e.ID, &e.CellID, &e.URL, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ext cell: %w", err)
		}

		out = append(out, &e)
	}

	return out, rows.Err()
}

func (s *Store) DeleteExtCell(ctx context.Context, cellID, id string) error {
	if err := s.deleteLinksOf(ctx, cellID, id); err != nil {
		return err
	}

	if _, err := s.exec(ctx, `DELETE FROM ext_cells WHERE cell_id = ? AND id = ?`, cellID, id); err != nil {
		return fmt.Errorf("delete ext cell: %w", err)
	}

	return nil
}

// --- links ---

func (s *Store) UpsertLink(ctx context.Context, link graph.Link) error {
	stmt := `INSERT INTO links (cell_id, kind, from_id, to_id) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`
	if s.dialect == DialectMySQL {
		stmt = `INSERT IGNORE INTO links (cell_id, kind, from_id, to_id) VALUES (?, ?, ?, ?)`
	}

	if _, err := s.exec(ctx, stmt, link.CellID, string(link.Kind), link.FromID, link.ToID); err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}

	return nil
}

func (s *Store) DeleteLink(ctx context.Context, link graph.Link) (bool, error) {
	res, err := s.exec(ctx,
		`DELETE FROM links WHERE cell_id = ? AND kind = ? AND from_id = ? AND to_id = ?`,
		link.CellID, string(link.Kind), link.FromID, link.ToID)
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	return n > 0, nil
}

func (s *Store) LinkExists(ctx context.Context, link graph.Link) (bool, error) {
	var one int

	err := s.queryRow(ctx,
		`SELECT 1 FROM links WHERE cell_id = ? AND kind = ? AND from_id = ? AND to_id = ?`,
		link.CellID, string(link.Kind), link.FromID, link.ToID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("link exists: %w", err)
	}

	return true, nil
}

func (s *Store) ListLinks(ctx context.Context, cellID string, kind graph.LinkKind, fromID string) ([]graph.Link, error) {
	rows, err := s.query(ctx,
		`SELECT cell_id, kind, from_id, to_id FROM links WHERE cell_id = ? AND kind = ? AND from_id = ? ORDER BY to_id`,
		cellID, string(kind), fromID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []graph.Link

	for rows.Next() {
		var l graph.Link
		if err := rows.Scan(&l.CellID, &l.Kind, &l.FromID, &l.ToID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}

		out = append(out, l)
	}

	return out, rows.Err()
}
