// Package sqlstore implements store.Store on database/sql. The sqlite
// dialect backs local runs and tests; the postgres dialect runs over lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"OrderOps/internal/store"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Store is a database/sql backed store.Store. Queries use $N placeholders,
// which both drivers bind by position.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn with the driver of dialect.
func Open(dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// one connection keeps ":memory:" databases shared and serializes writers
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, err
		}
	}
	return New(db, dialect), nil
}

// New wraps an open handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range store.Schema(string(s.dialect)) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// isDuplicate reports a unique-constraint violation from either driver.
func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// assignments accumulates "col = $N" pairs of a sparse UPDATE.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) add(col string, v any) {
	a.args = append(a.args, v)
	a.cols = append(a.cols, fmt.Sprintf("%s = $%d", col, len(a.args)))
}

func (a *assignments) empty() bool { return len(a.cols) == 0 }

// execUpdate runs "UPDATE table SET ... WHERE id = $N" and maps zero affected rows
// to store.ErrNotFound.
func (s *Store) execUpdate(ctx context.Context, table string, id int64, a *assignments) error {
	if a.empty() {
		return nil
	}
	a.add("updated_at", s.now())
	args := append(a.args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(a.cols, ", "), len(args))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
