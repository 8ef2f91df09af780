package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/httpx"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// PagesHandler serves the published-content surface. It exists to exercise
// the authenticators and the cache policy end to end: responses carry
// cache tags for downstream invalidation and go through the full
// cache-control negotiation.
type PagesHandler struct {
	Pages store.Pages
	Cache CachePolicy

	// PreviewRole unlocks unpublished content and forces the response
	// uncacheable.
	PreviewRole string
}

type pageResponse struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Locale    string `json:"locale"`
	Published bool   `json:"published"`
}

func (h *PagesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	preview := h.previewRequested(r)
	pages, err := h.Pages.ListPages(ctx, preview)
	if err != nil {
		slogx.FromContext(ctx).Error("list pages failed", "err", err)
		oauth2x.ErrServerError.WriteJSON(w)
		return
	}

	tags := make([]string, 0, len(pages))
	body := make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		tags = append(tags, p.CacheTag())
		body = append(body, pageResponse{
			Slug: p.Slug, Title: p.Title, Locale: p.Locale, Published: p.Published,
		})
	}

	h.finish(w, r, tags)
	writeCachedJSON(w, body)
}

func (h *PagesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.Pages.GetPageBySlug(ctx, r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		slogx.FromContext(ctx).Error("get page failed", "err", err)
		oauth2x.ErrServerError.WriteJSON(w)
		return
	}

	if !page.Published && !h.previewRequested(r) {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}

	h.finish(w, r, []string{page.CacheTag()})
	writeCachedJSON(w, pageResponse{
		Slug: page.Slug, Title: page.Title, Body: page.Body,
		Locale: page.Locale, Published: page.Published,
	})
}

// writeCachedJSON writes a JSON body without touching Cache-Control, so
// the cache policy's headers survive. httpx.WriteJSON would force
// no-store, which is right for the protocol endpoints but wrong here.
func writeCachedJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// previewRequested reports whether the identity may and does ask for
// preview content, and marks the request context accordingly.
func (h *PagesHandler) previewRequested(r *http.Request) bool {
	identity, ok := IdentityFrom(r.Context())
	if !ok || !identity.HasRole(h.PreviewRole) {
		return false
	}
	CacheContextFrom(r.Context()).Preview = true
	return true
}

// finish emits cache tags and runs the response through the cache policy.
func (h *PagesHandler) finish(w http.ResponseWriter, r *http.Request, tags []string) {
	if len(tags) > 0 {
		w.Header().Set("X-Cache-Tags", strings.Join(tags, " "))
	}
	h.Cache.Apply(w, h.Cache.Decide(r, h.Cache.TTLMinutes))
}
