package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/internal/gateway/store/drivers/sqlite"
	"github.com/inkwellhq/apigate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedClient(t *testing.T, st *sqlite.Store, c domain.Client) domain.Client {
	t.Helper()

	if c.ID == "" {
		c.ID = idx.New().String()
	}
	if c.APIKey == "" {
		c.APIKey = "key-" + c.ID
	}
	require.NoError(t, st.Clients().CreateClient(context.Background(), c))
	return c
}

func TestClientsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created := seedClient(t, st, domain.Client{
		Name:         "frontend",
		Enabled:      true,
		Roles:        []string{"ROLE_API", "ROLE_NEWS"},
		RefererRegex: `^https://example\.org`,
		GrantTypes:   []string{domain.GrantAuthorizationCode},
	})

	got, err := st.Clients().GetClientByAPIKey(ctx, created.APIKey)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, []string{"ROLE_API", "ROLE_NEWS"}, got.Roles)
	require.True(t, got.Enabled)
	require.False(t, got.Confidential())

	got.APIKey = "rotated-key"
	got.Enabled = false
	require.NoError(t, st.Clients().UpdateClient(ctx, got))

	_, err = st.Clients().GetClientByAPIKey(ctx, created.APIKey)
	require.ErrorIs(t, err, store.ErrNotFound)

	rotated, err := st.Clients().GetClientByAPIKey(ctx, "rotated-key")
	require.NoError(t, err)
	require.False(t, rotated.Enabled)
}

func TestClientAPIKeyUnique(t *testing.T) {
	st := newTestStore(t)

	first := seedClient(t, st, domain.Client{Name: "a", Enabled: true})

	err := st.Clients().CreateClient(context.Background(), domain.Client{
		ID:     idx.New().String(),
		APIKey: first.APIKey,
		Name:   "b",
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAuthorizationCodeDuplicateIdentifier(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	client := seedClient(t, st, domain.Client{Name: "app", Enabled: true})

	code := domain.AuthorizationCode{
		ID:        "opaque-code-1",
		ClientID:  client.ID,
		Scopes:    []string{"api"},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, code))

	err := st.AuthorizationCodes().CreateAuthorizationCode(ctx, code)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAuthorizationCodeRevocation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	client := seedClient(t, st, domain.Client{Name: "app", Enabled: true})

	code := domain.AuthorizationCode{
		ID:        "opaque-code-2",
		ClientID:  client.ID,
		UserID:    "user-1",
		Scopes:    []string{"api", "preview"},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, code))

	got, err := st.AuthorizationCodes().GetAuthorizationCode(ctx, code.ID)
	require.NoError(t, err)
	require.False(t, got.Revoked)
	require.Equal(t, []string{"api", "preview"}, got.Scopes)

	require.NoError(t, st.AuthorizationCodes().RevokeAuthorizationCode(ctx, code.ID))

	got, err = st.AuthorizationCodes().GetAuthorizationCode(ctx, code.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)

	// Revoking an unknown code stays a no-op.
	require.NoError(t, st.AuthorizationCodes().RevokeAuthorizationCode(ctx, "missing"))
}

func TestSessionsLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	client := seedClient(t, st, domain.Client{Name: "app", Enabled: true})

	session := domain.APISession{
		KeyHash:  "fingerprint",
		ClientID: client.ID,
		Roles:    []string{"ROLE_API"},
	}
	require.NoError(t, st.Sessions().PutSession(ctx, session))

	// Put is an upsert; replacing the same fingerprint must not conflict.
	session.Roles = []string{"ROLE_API", "ROLE_NEWS"}
	require.NoError(t, st.Sessions().PutSession(ctx, session))

	got, err := st.Sessions().GetSession(ctx, "fingerprint")
	require.NoError(t, err)
	require.Equal(t, []string{"ROLE_API", "ROLE_NEWS"}, got.Roles)

	require.NoError(t, st.Sessions().DeleteSession(ctx, "fingerprint"))
	_, err = st.Sessions().GetSession(ctx, "fingerprint")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again stays a no-op.
	require.NoError(t, st.Sessions().DeleteSession(ctx, "fingerprint"))
}

func TestRolesRegistry(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Roles().CreateRole(ctx, domain.Role{Name: "ROLE_API"}))
	require.NoError(t, st.Roles().CreateRole(ctx, domain.Role{Name: "ROLE_NEWS"}))

	exists, err := st.Roles().RoleExists(ctx, "ROLE_NEWS")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = st.Roles().RoleExists(ctx, "ROLE_MISSING")
	require.NoError(t, err)
	require.False(t, exists)

	roles, err := st.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)
}

func TestPagesPublishedFilter(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Pages().CreatePage(ctx, domain.Page{
		ID: idx.New().String(), Slug: "home", Title: "Home", Published: true, Locale: "en",
	}))
	require.NoError(t, st.Pages().CreatePage(ctx, domain.Page{
		ID: idx.New().String(), Slug: "draft", Title: "Draft", Published: false, Locale: "en",
	}))

	published, err := st.Pages().ListPages(ctx, false)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "home", published[0].Slug)

	all, err := st.Pages().ListPages(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	client := seedClient(t, st, domain.Client{Name: "app", Enabled: true})

	sentinel := store.ErrAlreadyExists
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
			ID:        "tx-code",
			ClientID:  client.ID,
			ExpiresAt: time.Now().Add(time.Minute),
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.AuthorizationCodes().GetAuthorizationCode(ctx, "tx-code")
	require.ErrorIs(t, err, store.ErrNotFound)
}
