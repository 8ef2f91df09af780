package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/jwtx"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
	"github.com/inkwellhq/apigate/pkg/slogx"
)

// BearerAuthenticator authenticates requests carrying an OAuth2 bearer
// token. Requests without an Authorization header pass through untouched.
type BearerAuthenticator struct {
	Verifier   jwtx.Verifier
	Translator *scope.Translator
	Users      store.Users

	// BaseRole is always granted to any holder of a valid token.
	BaseRole string
}

// Middleware returns the authenticator in middleware form.
func (a *BearerAuthenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				oauth2x.ErrInvalidToken.WriteJSON(w)
				return
			}

			claims, err := a.Verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				log.Debug("bearer token rejected", "err", err)
				oauth2x.ErrInvalidToken.WriteJSON(w)
				return
			}

			roles, err := a.effectiveRoles(r, claims)
			if err != nil {
				log.Error("role resolution failed", "err", err)
				oauth2x.ErrServerError.WriteJSON(w)
				return
			}

			identity := domain.Identity{
				ClientID: claims.ClientID,
				Roles:    roles,
				Scopes:   claims.Scopes,
			}
			if claims.Subject != claims.ClientID {
				identity.UserID = claims.Subject
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// effectiveRoles derives the identity's role set: the base API role, one
// role per granted scope, and the bound user's own roles, deduplicated in
// that order.
func (a *BearerAuthenticator) effectiveRoles(r *http.Request, claims jwtx.Claims) ([]string, error) {
	roles := []string{a.BaseRole}
	roles = append(roles, a.Translator.ToRoles(claims.Scopes)...)

	if claims.Subject != "" && claims.Subject != claims.ClientID {
		user, err := a.Users.GetUserByID(r.Context(), claims.Subject)
		switch {
		case err == nil:
			roles = append(roles, user.Roles...)
		case errors.Is(err, store.ErrNotFound):
			// Token subjects are not required to be host users.
		default:
			return nil, err
		}
	}

	return dedupe(roles), nil
}

// RequireScopes enforces that the authenticated bearer token covers every
// listed scope. It must sit inside a BearerAuthenticator in the chain.
func RequireScopes(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				oauth2x.ErrInvalidToken.WriteJSON(w)
				return
			}
			for _, s := range required {
				if !slices.Contains(identity.Scopes, s) {
					slogx.FromContext(r.Context()).Warn("insufficient scopes",
						"client_id", identity.ClientID,
						"required", required,
						"granted", identity.Scopes)
					oauth2x.ErrInsufficientScope.WriteJSON(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireIdentity rejects requests that reached the handler without any
// authenticated identity.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFrom(r.Context()); !ok {
				oauth2x.ErrInvalidToken.WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
