package sqlite

import (
	"context"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type usersRepo struct {
	q dbtx
}

func (r *usersRepo) getUser(ctx context.Context, query, arg string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, query, arg)

	var (
		u     domain.User
		roles string
	)
	if err := row.Scan(&u.ID, &u.Username, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = splitList(roles)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx,
		`SELECT id, username, roles, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getUser(ctx,
		`SELECT id, username, roles, created_at, updated_at FROM users WHERE username = ?`, username)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, username, roles) VALUES (?, ?, ?)`,
		u.ID, u.Username, joinList(u.Roles))
	return mapConflict(err)
}
