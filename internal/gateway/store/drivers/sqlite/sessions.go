package sqlite

import (
	"context"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type sessionsRepo struct {
	q dbtx
}

func (r *sessionsRepo) PutSession(ctx context.Context, s domain.APISession) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO api_sessions (key_hash, client_id, roles)
		VALUES (?, ?, ?)
		ON CONFLICT(key_hash) DO UPDATE SET client_id = excluded.client_id, roles = excluded.roles`,
		s.KeyHash, s.ClientID, joinList(s.Roles),
	)
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, keyHash string) (domain.APISession, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT key_hash, client_id, roles, created_at FROM api_sessions WHERE key_hash = ?`, keyHash)

	var (
		s     domain.APISession
		roles string
	)
	if err := row.Scan(&s.KeyHash, &s.ClientID, &roles, &s.CreatedAt); err != nil {
		return domain.APISession{}, mapNotFound(err)
	}
	s.Roles = splitList(roles)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, keyHash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM api_sessions WHERE key_hash = ?`, keyHash)
	return err
}
