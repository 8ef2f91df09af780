package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/cryptox"
	"github.com/inkwellhq/apigate/pkg/idx"
)

// apiKeyBytes is the entropy of a generated client API key.
const apiKeyBytes = 32

// ClientService is the directory of registered client applications. Lookup
// is by API key; a client only resolves while enabled.
type ClientService struct {
	store store.Store
	log   *slog.Logger
}

func NewClientService(st store.Store, log *slog.Logger) *ClientService {
	return &ClientService{store: st, log: log}
}

// GetClient resolves a client by its trimmed API key. Disabled clients do
// not resolve; both the unknown and the disabled case return
// ErrClientNotFound so a caller cannot probe which keys exist.
func (s *ClientService) GetClient(ctx context.Context, apiKey string) (domain.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.Client{}, ErrClientNotFound
	}

	client, err := s.store.Clients().GetClientByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	if !client.Enabled {
		return domain.Client{}, ErrClientNotFound
	}
	return client, nil
}

// ValidateClient resolves a client and checks its credentials for the given
// grant type. Public clients pass without a secret. Confidential clients
// must present a secret that verifies against the stored hash, and the
// grant type (when given) must be in the client's allow-list.
func (s *ClientService) ValidateClient(ctx context.Context, apiKey, secret, grantType string) (domain.Client, error) {
	client, err := s.GetClient(ctx, apiKey)
	if err != nil {
		return domain.Client{}, err
	}

	if client.Confidential() {
		if err := cryptox.VerifySecret(secret, client.SecretHash); err != nil {
			return domain.Client{}, ErrInvalidClientCredentials
		}
	}
	if !client.AllowsGrantType(grantType) {
		return domain.Client{}, ErrInvalidClientCredentials
	}
	return client, nil
}

// CreateClient registers a new client and returns it with its generated ID,
// API key and hashed secret. The plaintext secret is only ever available to
// the caller here.
func (s *ClientService) CreateClient(ctx context.Context, client domain.Client, secret string) (domain.Client, error) {
	client.ID = idx.New().String()

	apiKey, err := cryptox.GenerateToken(apiKeyBytes)
	if err != nil {
		return domain.Client{}, fmt.Errorf("generate api key: %w", err)
	}
	client.APIKey = apiKey

	if secret != "" {
		hash, err := cryptox.HashSecret(secret)
		if err != nil {
			return domain.Client{}, fmt.Errorf("hash client secret: %w", err)
		}
		client.SecretHash = hash
	}

	if err := s.store.Clients().CreateClient(ctx, client); err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}

	s.log.InfoContext(ctx, "client created",
		slog.String("client_id", client.ID),
		slog.String("name", client.Name))
	return client, nil
}

// SaveClient persists changes to a client. Every save regenerates the API
// key, so callers must hand the returned client back to the application;
// the pre-save key stops resolving the moment this returns.
func (s *ClientService) SaveClient(ctx context.Context, client domain.Client) (domain.Client, error) {
	apiKey, err := cryptox.GenerateToken(apiKeyBytes)
	if err != nil {
		return domain.Client{}, fmt.Errorf("generate api key: %w", err)
	}
	client.APIKey = apiKey
	client.UpdatedAt = time.Now().UTC()

	if err := s.store.Clients().UpdateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}

	s.log.InfoContext(ctx, "client saved, api key rotated",
		slog.String("client_id", client.ID))
	return client, nil
}
