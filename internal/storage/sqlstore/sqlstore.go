// Package sqlstore implements storage.Store on database/sql. Supported
// dialects are sqlite (modernc, no cgo), postgres (pgx stdlib) and mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/looplj/cellhub/internal/storage"
)

// Config selects the backing database.
type Config struct {
	Dialect Dialect `conf:"dialect" yaml:"dialect" json:"dialect"`
	DSN     string  `conf:"dsn" yaml:"dsn" json:"dsn"`
}

// Dialect selects the SQL flavor for placeholders and upserts.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

func driverName(d Dialect) (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	case DialectMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQL-backed store. The zero value is not usable; construct
// via Open.
type Store struct {
	db      *sql.DB
	q       querier
	dialect Dialect
}

var _ storage.Store = (*Store)(nil)

// Open connects, pings and creates the schema.
//
// The mysql DSN must enable parseTime so timestamp columns scan into
// time.Time.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	driver, err := driverName(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s := &Store{db: db, q: db, dialect: dialect}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// InTx runs fn against a store view bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	view := &Store{db: s.db, q: tx, dialect: s.dialect}

	if err := fn(view); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders to the dialect's native form. Queries in
// this package are written with ?.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder

	n := 0

	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(query), args...)
}
