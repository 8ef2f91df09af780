package http_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	gatewayhttp "github.com/inkwellhq/apigate/internal/gateway/http"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/internal/gateway/store/drivers/sqlite"
	"github.com/inkwellhq/apigate/pkg/idx"
	"github.com/inkwellhq/apigate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type bearerFixture struct {
	store  *sqlite.Store
	signer *jwtx.EdDSASigner
	auth   *gatewayhttp.BearerAuthenticator
}

func newBearerFixture(t *testing.T) *bearerFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer := jwtx.NewSignerFromKey("test", priv)

	return &bearerFixture{
		store:  st,
		signer: signer,
		auth: &gatewayhttp.BearerAuthenticator{
			Verifier:   jwtx.NewVerifierEdDSA(signer.Public(), "https://gateway.example.org"),
			Translator: scope.NewTranslator("ROLE_", "ROLE_API", "ROLE_PREVIEW"),
			Users:      st.Users(),
			BaseRole:   "ROLE_API",
		},
	}
}

func (f *bearerFixture) token(t *testing.T, subject, clientID string, scopes []string) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(subject, clientID, scopes,
		time.Hour, "https://gateway.example.org", time.Now().UTC())
	token, err := f.signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func (f *bearerFixture) serve(t *testing.T, r *http.Request, extra ...func(http.Handler) http.Handler) (*httptest.ResponseRecorder, *domain.Identity) {
	t.Helper()

	var identity *domain.Identity
	var inner http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := gatewayhttp.IdentityFrom(r.Context()); ok {
			identity = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	for i := len(extra) - 1; i >= 0; i-- {
		inner = extra[i](inner)
	}

	w := httptest.NewRecorder()
	f.auth.Middleware()(inner).ServeHTTP(w, r)
	return w, identity
}

func TestBearerAuthenticatorPassThrough(t *testing.T) {
	f := newBearerFixture(t)

	w, identity := f.serve(t, httptest.NewRequest(http.MethodGet, "/v1/pages", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, identity)
}

func TestBearerAuthenticatorRejectsBadTokens(t *testing.T) {
	f := newBearerFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{"not a bearer scheme", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
			r.Header.Set("Authorization", tc.header)

			w, identity := f.serve(t, r)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Nil(t, identity)
		})
	}
}

func TestBearerAuthenticatorDerivesRoles(t *testing.T) {
	ctx := context.Background()
	f := newBearerFixture(t)

	t.Run("client-only token gets base role plus scope roles", func(t *testing.T) {
		token := f.token(t, "client-1", "client-1", []string{"news", "preview"})
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w, identity := f.serve(t, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, identity)
		require.Empty(t, identity.UserID)
		require.Equal(t, []string{"ROLE_API", "ROLE_NEWS", "ROLE_PREVIEW"}, identity.Roles)
	})

	t.Run("user-bound token adds the user's own roles deduplicated", func(t *testing.T) {
		user := domain.User{
			ID:       idx.New().String(),
			Username: "alice",
			Roles:    []string{"ROLE_EDITOR", "ROLE_NEWS"},
		}
		require.NoError(t, f.store.Users().CreateUser(ctx, user))

		token := f.token(t, user.ID, "client-1", []string{"news"})
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w, identity := f.serve(t, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, identity)
		require.Equal(t, user.ID, identity.UserID)
		require.Equal(t, []string{"ROLE_API", "ROLE_NEWS", "ROLE_EDITOR"}, identity.Roles)
	})

	t.Run("unknown subject is tolerated as client-only", func(t *testing.T) {
		token := f.token(t, "ghost-user", "client-1", []string{"news"})
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w, identity := f.serve(t, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, identity)
		require.Equal(t, []string{"ROLE_API", "ROLE_NEWS"}, identity.Roles)
	})
}

func TestRequireScopes(t *testing.T) {
	f := newBearerFixture(t)

	t.Run("covered scopes pass", func(t *testing.T) {
		token := f.token(t, "client-1", "client-1", []string{"news", "api"})
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w, _ := f.serve(t, r, gatewayhttp.RequireScopes("news"))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing scope is forbidden", func(t *testing.T) {
		token := f.token(t, "client-1", "client-1", []string{"news"})
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		w, _ := f.serve(t, r, gatewayhttp.RequireScopes("news", "admin"))
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no identity is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/pages", nil)

		w, _ := f.serve(t, r, gatewayhttp.RequireScopes("news"))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
