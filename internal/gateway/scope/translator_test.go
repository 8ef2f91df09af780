package scope_test

import (
	"context"
	"testing"

	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/stretchr/testify/require"
)

func newTranslator() *scope.Translator {
	return scope.NewTranslator("ROLE_", "ROLE_API", "ROLE_PREVIEW")
}

func TestToScope(t *testing.T) {
	tr := newTranslator()

	tests := []struct {
		role string
		want string
	}{
		{"ROLE_PREVIEW", "preview"},
		{"ROLE_API", "api"},
		{"ROLE_NEWS_READ", "news-read"},
		{"ROLE_EDITOR", "editor"},
		{"CUSTOM_THING", "custom-thing"},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			require.Equal(t, tc.want, tr.ToScope(tc.role))
		})
	}
}

func TestToRole(t *testing.T) {
	tr := newTranslator()

	tests := []struct {
		scope string
		want  string
	}{
		{"preview", "ROLE_PREVIEW"},
		{"api", "ROLE_API"},
		{"news-read", "ROLE_NEWS_READ"},
		{"news read", "ROLE_NEWS_READ"},
		{"news.read", "ROLE_NEWS_READ"},
		{"news:read", "ROLE_NEWS_READ"},
		{"editor", "ROLE_EDITOR"},
	}
	for _, tc := range tests {
		t.Run(tc.scope, func(t *testing.T) {
			require.Equal(t, tc.want, tr.ToRole(tc.scope))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tr := newTranslator()

	// Hyphen-form scopes survive a scope -> role -> scope round trip.
	for _, s := range []string{"preview", "api", "news-read", "editor", "page-comments-write"} {
		role := tr.ToRole(s)
		require.Equal(t, s, tr.ToScope(role), "scope %q did not round-trip via %q", s, role)
	}
}

type registryStub struct {
	known map[string]bool
	err   error
}

func (r *registryStub) RoleExists(_ context.Context, name string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.known[name], nil
}

func TestIdentifierToRole(t *testing.T) {
	tr := newTranslator()
	registry := &registryStub{known: map[string]bool{"ROLE_NEWS": true}}

	role, ok, err := tr.IdentifierToRole(context.Background(), registry, "news")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ROLE_NEWS", role)

	_, ok, err = tr.IdentifierToRole(context.Background(), registry, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIdentifierToRoleReservedScopes(t *testing.T) {
	tr := newTranslator()

	t.Run("resolve when registered", func(t *testing.T) {
		registry := &registryStub{known: map[string]bool{"ROLE_PREVIEW": true, "ROLE_API": true}}

		role, ok, err := tr.IdentifierToRole(context.Background(), registry, "preview")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "ROLE_PREVIEW", role)

		role, ok, err = tr.IdentifierToRole(context.Background(), registry, "api")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "ROLE_API", role)
	})

	t.Run("miss when not registered", func(t *testing.T) {
		registry := &registryStub{known: map[string]bool{}}

		_, ok, err := tr.IdentifierToRole(context.Background(), registry, "preview")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestBatchConversions(t *testing.T) {
	tr := newTranslator()

	require.Equal(t,
		[]string{"api", "preview", "news-read"},
		tr.ToScopes([]string{"ROLE_API", "ROLE_PREVIEW", "ROLE_NEWS_READ"}))
	require.Equal(t,
		[]string{"ROLE_API", "ROLE_PREVIEW", "ROLE_NEWS_READ"},
		tr.ToRoles([]string{"api", "preview", "news-read"}))
}
