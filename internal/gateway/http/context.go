package http

import (
	"context"
	"net/http"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

type identityKey struct{}

type cacheContextKey struct{}

// WithIdentity installs the authenticated identity on the request context.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom retrieves the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// CacheContext accumulates the per-request facts the response cache policy
// needs. Middlewares mutate it in place; the pointer lives on the request
// context for the lifetime of one request only.
type CacheContext struct {
	// Preview marks a draft/preview rendering context.
	Preview bool

	// Debug marks a debug-mode request.
	Debug bool

	// Subrequest marks an internal (non top-level) request.
	Subrequest bool

	// Maintenance marks system-wide maintenance mode.
	Maintenance bool

	// VaryOrigin is set when a referer allow-list was enforced, so shared
	// caches must key on Origin.
	VaryOrigin bool

	// VaryLanguage is set when locale resolution ran for this request.
	VaryLanguage bool

	// ContentLanguage is the resolved response language, empty if none.
	ContentLanguage string
}

// WithCacheContext seeds a fresh cache context on the request.
func WithCacheContext(r *http.Request) (*http.Request, *CacheContext) {
	cc := &CacheContext{}
	return r.WithContext(context.WithValue(r.Context(), cacheContextKey{}, cc)), cc
}

// CacheContextFrom retrieves the request's cache context. Requests that
// bypass the seeding middleware get a throwaway value, so callers can
// always mutate the result safely.
func CacheContextFrom(ctx context.Context) *CacheContext {
	if cc, ok := ctx.Value(cacheContextKey{}).(*CacheContext); ok {
		return cc
	}
	return &CacheContext{}
}
