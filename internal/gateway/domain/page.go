package domain

import "time"

// Page is the boundary view of a CMS content record served by the API.
// Content modeling itself belongs to the host system; the gateway only
// reads published state, locale, and the rendered fields.
type Page struct {
	ID        string
	Slug      string
	Title     string
	Body      string
	Locale    string
	Published bool
	UpdatedAt time.Time
}

// CacheTag returns the invalidation tag emitted for this page. Tags are
// opaque to the gateway; downstream caches interpret them.
func (p Page) CacheTag() string { return "page:" + p.ID }
