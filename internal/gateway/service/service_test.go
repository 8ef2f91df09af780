package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/internal/gateway/service"
	"github.com/inkwellhq/apigate/internal/gateway/store/drivers/sqlite"
	"github.com/inkwellhq/apigate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// fixture wires the full service stack over an in-memory database.
type fixture struct {
	store      *sqlite.Store
	clients    *service.ClientService
	codes      *service.CodeService
	translator *scope.Translator
	authorizer *scope.Authorizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	log := slogx.Discard()
	translator := scope.NewTranslator("ROLE_", "ROLE_API", "ROLE_PREVIEW")

	return &fixture{
		store:      st,
		clients:    service.NewClientService(st, log),
		codes:      service.NewCodeService(st, 5*time.Minute, log),
		translator: translator,
		authorizer: scope.NewAuthorizer(translator),
	}
}

func (f *fixture) createClient(t *testing.T, c domain.Client, secret string) domain.Client {
	t.Helper()

	created, err := f.clients.CreateClient(context.Background(), c, secret)
	require.NoError(t, err)
	return created
}
