package sqlite

import (
	"context"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type codesRepo struct {
	q dbtx
}

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO authorization_codes (id, client_id, user_id, scopes, revoked, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		code.ID, code.ClientID, code.UserID, joinList(code.Scopes), code.Revoked, code.ExpiresAt,
	)
	return mapConflict(err)
}

func (r *codesRepo) GetAuthorizationCode(ctx context.Context, id string) (domain.AuthorizationCode, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, client_id, user_id, scopes, revoked, expires_at, created_at
		FROM authorization_codes WHERE id = ?`, id)

	var (
		c      domain.AuthorizationCode
		scopes string
	)
	if err := row.Scan(&c.ID, &c.ClientID, &c.UserID, &scopes, &c.Revoked, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	c.Scopes = splitList(scopes)
	return c, nil
}

func (r *codesRepo) RevokeAuthorizationCode(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE authorization_codes SET revoked = 1 WHERE id = ?`, id)
	return err
}

func (r *codesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}
