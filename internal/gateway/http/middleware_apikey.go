package http

import (
	"net/http"
	"regexp"
	"sync"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/cryptox"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// errorCodeInvalidAPIKey is the stable machine-readable reason emitted for
// every API-key authentication failure.
const errorCodeInvalidAPIKey = "invalid_api_key"

// APIKeyAuthenticator authenticates requests carrying an API key, either
// as the api_key query parameter or the x-api-key header, the query form
// taking precedence. Requests without a key pass through untouched; a
// later authenticator may still establish an identity.
type APIKeyAuthenticator struct {
	Clients  *service.ClientService
	Sessions store.Sessions

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// Middleware returns the authenticator in middleware form.
func (a *APIKeyAuthenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Query().Get("api_key")
			if key == "" {
				key = r.Header.Get("x-api-key")
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)
			fingerprint := cryptox.FingerprintToken(key)

			client, err := a.Clients.GetClient(ctx, key)
			if err != nil {
				a.clearSession(r, fingerprint)
				oauth2x.NewError(http.StatusForbidden, errorCodeInvalidAPIKey,
					"the api key is unknown or disabled").WriteJSON(w)
				return
			}

			if client.RefererRegex != "" {
				origin := r.Header.Get("Origin")
				pattern, err := a.pattern(client.RefererRegex)
				if err != nil || !pattern.MatchString(origin) {
					a.clearSession(r, fingerprint)
					log.Warn("api key rejected by referer allow-list",
						"client_id", client.ID, "origin", origin)
					oauth2x.NewError(http.StatusForbidden, errorCodeInvalidAPIKey,
						"origin "+origin+" is not allowed for this api key").WriteJSON(w)
					return
				}
				// Responses now depend on Origin; shared caches must key on it.
				CacheContextFrom(ctx).VaryOrigin = true
			}

			if err := a.Sessions.PutSession(ctx, domain.APISession{
				KeyHash:  fingerprint,
				ClientID: client.ID,
				Roles:    client.Roles,
			}); err != nil {
				log.Error("api session store failed", "err", err)
			}

			identity := domain.Identity{
				ClientID: client.ID,
				Roles:    client.Roles,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// clearSession drops any stored identity for the failing credential so a
// revoked or disabled key cannot ride on a stale session.
func (a *APIKeyAuthenticator) clearSession(r *http.Request, fingerprint string) {
	if err := a.Sessions.DeleteSession(r.Context(), fingerprint); err != nil {
		slogx.FromContext(r.Context()).Error("api session clear failed", "err", err)
	}
}

func (a *APIKeyAuthenticator) pattern(expr string) (*regexp.Regexp, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.patterns == nil {
		a.patterns = make(map[string]*regexp.Regexp)
	}
	if p, ok := a.patterns[expr]; ok {
		return p, nil
	}
	p, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	a.patterns[expr] = p
	return p, nil
}
