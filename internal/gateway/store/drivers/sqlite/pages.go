package sqlite

import (
	"context"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type pagesRepo struct {
	q dbtx
}

func (r *pagesRepo) GetPageBySlug(ctx context.Context, slug string) (domain.Page, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, slug, title, body, locale, published, updated_at
		FROM pages WHERE slug = ?`, slug)

	var p domain.Page
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Locale, &p.Published, &p.UpdatedAt); err != nil {
		return domain.Page{}, mapNotFound(err)
	}
	return p, nil
}

func (r *pagesRepo) ListPages(ctx context.Context, includeUnpublished bool) ([]domain.Page, error) {
	query := `SELECT id, slug, title, body, locale, published, updated_at FROM pages`
	if !includeUnpublished {
		query += ` WHERE published = 1`
	}
	query += ` ORDER BY slug`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Locale, &p.Published, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (r *pagesRepo) CreatePage(ctx context.Context, p domain.Page) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO pages (id, slug, title, body, locale, published)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, p.Body, p.Locale, p.Published)
	return mapConflict(err)
}
