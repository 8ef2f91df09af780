package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/store"
	_ "modernc.org/sqlite"
)

// dbtx abstracts *sql.DB and *sql.Tx so repositories work in both scopes.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling
// commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Rollback is safe to call after commit; covers panics and early returns.
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(&tx{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func (s *Store) Clients() store.Clients                       { return &clientsRepo{q: s.db} }
func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return &codesRepo{q: s.db} }
func (s *Store) Roles() store.Roles                           { return &rolesRepo{q: s.db} }
func (s *Store) Users() store.Users                           { return &usersRepo{q: s.db} }
func (s *Store) Sessions() store.Sessions                     { return &sessionsRepo{q: s.db} }
func (s *Store) Pages() store.Pages                           { return &pagesRepo{q: s.db} }

// tx exposes the same repositories bound to an open transaction.
type tx struct {
	q *sql.Tx
}

func (t *tx) Clients() store.Clients                       { return &clientsRepo{q: t.q} }
func (t *tx) AuthorizationCodes() store.AuthorizationCodes { return &codesRepo{q: t.q} }
func (t *tx) Roles() store.Roles                           { return &rolesRepo{q: t.q} }
func (t *tx) Users() store.Users                           { return &usersRepo{q: t.q} }
func (t *tx) Sessions() store.Sessions                     { return &sessionsRepo{q: t.q} }
func (t *tx) Pages() store.Pages                           { return &pagesRepo{q: t.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict translates a sqlite unique-constraint violation into the
// portable ErrAlreadyExists.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: PRIMARY KEY") {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// joinList serializes a list into the space-delimited column form.
func joinList(items []string) string {
	return strings.Join(items, " ")
}

// splitList parses a space-delimited column, dropping blanks and duplicates
// while preserving order.
func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
