package sqlite

import (
	"context"
	"database/sql"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type clientsRepo struct {
	q dbtx
}

const clientColumns = `id, api_key, name, enabled, roles, secret_hash, redirect_uri, referer_regex, grant_types, allow_plain_challenge, created_at, updated_at`

func (r *clientsRepo) scanClient(row *sql.Row) (domain.Client, error) {
	var (
		c          domain.Client
		roles      string
		secretHash sql.NullString
		grants     string
	)

	err := row.Scan(
		&c.ID, &c.APIKey, &c.Name, &c.Enabled, &roles, &secretHash,
		&c.RedirectURI, &c.RefererRegex, &grants, &c.AllowPlainChallenge,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.Roles = splitList(roles)
	c.SecretHash = mapNullString(secretHash)
	c.GrantTypes = splitList(grants)
	return c, nil
}

func (r *clientsRepo) GetClientByAPIKey(ctx context.Context, apiKey string) (domain.Client, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE api_key = ?`, apiKey)
	return r.scanClient(row)
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return r.scanClient(row)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var (
			c          domain.Client
			roles      string
			secretHash sql.NullString
			grants     string
		)
		if err := rows.Scan(
			&c.ID, &c.APIKey, &c.Name, &c.Enabled, &roles, &secretHash,
			&c.RedirectURI, &c.RefererRegex, &grants, &c.AllowPlainChallenge,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		c.Roles = splitList(roles)
		c.SecretHash = mapNullString(secretHash)
		c.GrantTypes = splitList(grants)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (id, api_key, name, enabled, roles, secret_hash, redirect_uri, referer_regex, grant_types, allow_plain_challenge)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.APIKey, c.Name, c.Enabled, joinList(c.Roles), mapStringNull(c.SecretHash),
		c.RedirectURI, c.RefererRegex, joinList(c.GrantTypes), c.AllowPlainChallenge,
	)
	return mapConflict(err)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE clients
		SET api_key = ?, name = ?, enabled = ?, roles = ?, secret_hash = ?,
		    redirect_uri = ?, referer_regex = ?, grant_types = ?,
		    allow_plain_challenge = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.APIKey, c.Name, c.Enabled, joinList(c.Roles), mapStringNull(c.SecretHash),
		c.RedirectURI, c.RefererRegex, joinList(c.GrantTypes), c.AllowPlainChallenge,
		c.ID,
	)
	if err != nil {
		return mapConflict(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	return err
}
