package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/httpx"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthorizeService *service.AuthorizeService
	TokenService     *service.TokenService
	ClientService    *service.ClientService

	APIKeyAuth *APIKeyAuthenticator
	BearerAuth *BearerAuthenticator
	Locale     *LocaleResolver
	Cache      CachePolicy
	PagesStore store.Pages

	// PreviewRole gates preview content on the pages surface.
	PreviewRole string
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Every request gets a context logger and a fresh cache context.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		cacheContextMiddleware,
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerPages()
	r.registerSystem()
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}

	// GET /authorize - lenient rate limit (mostly redirects browsers
	// around). The bearer authenticator runs first so an already
	// authenticated user can be bound by the resolver chain.
	r.Mux.Handle("GET /v1/oauth2/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandleGet),
			r.BearerAuth.Middleware(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /authorize - strict rate limit keyed by IP and client to slow
	// enumeration of client identifiers
	r.Mux.Handle("POST /v1/oauth2/authorize",
		httpx.Chain(http.HandlerFunc(authorizeHandler.HandlePost),
			r.BearerAuth.Middleware(),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	// POST /token - strict rate limit by IP (covers all grant types)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPages() {
	h := &PagesHandler{
		Pages:       r.PagesStore,
		Cache:       r.Cache,
		PreviewRole: r.PreviewRole,
	}

	secured := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			r.APIKeyAuth.Middleware(),
			r.BearerAuth.Middleware(),
			RequireIdentity(),
			r.Locale.Middleware(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/pages", secured(h.HandleList))
	r.Mux.Handle("GET /v1/pages/{slug}", secured(h.HandleGet))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(r.LivezHandler),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(r.ReadyzHandler),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// cacheContextMiddleware seeds the per-request cache context before any
// authenticator or handler runs.
func cacheContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = WithCacheContext(r)
		next.ServeHTTP(w, r)
	})
}
