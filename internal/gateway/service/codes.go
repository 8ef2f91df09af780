package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/store"
	"github.com/inkwellhq/apigate/pkg/cryptox"
)

// codeBytes is the entropy of a generated authorization code value.
const codeBytes = 32

// CodeService manages authorization code issuance, persistence and
// revocation state. The code value handed to the client is the storage
// identifier; a UNIQUE constraint on it closes the check-then-insert race
// under concurrent submissions.
type CodeService struct {
	store store.Store
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

func NewCodeService(st store.Store, ttl time.Duration, log *slog.Logger) *CodeService {
	return &CodeService{
		store: st,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Issue mints a fresh, unpersisted code value.
func (s *CodeService) Issue() (string, error) {
	return cryptox.GenerateToken(codeBytes)
}

// Persist stores an authorization code snapshot for the given client, user
// and scope grant. A conflicting identifier returns ErrDuplicateIdentifier;
// the caller retries with a new Issue.
func (s *CodeService) Persist(ctx context.Context, code string, client domain.Client, userID string, scopes []string) (domain.AuthorizationCode, error) {
	record := domain.AuthorizationCode{
		ID:        code,
		ClientID:  client.ID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}

	if err := s.store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AuthorizationCode{}, ErrDuplicateIdentifier
		}
		return domain.AuthorizationCode{}, fmt.Errorf("persist authorization code: %w", err)
	}

	s.log.DebugContext(ctx, "authorization code issued",
		slog.String("client_id", client.ID),
		slog.Int("scopes", len(scopes)))
	return record, nil
}

// Revoke marks a code revoked. Revoking an unknown code is a no-op.
func (s *CodeService) Revoke(ctx context.Context, code string) error {
	if err := s.store.AuthorizationCodes().RevokeAuthorizationCode(ctx, code); err != nil {
		return fmt.Errorf("revoke authorization code: %w", err)
	}
	return nil
}

// IsRevoked reports the revocation state of a code. A code that does not
// exist reports as revoked; unknown identifiers fail closed rather than
// open.
func (s *CodeService) IsRevoked(ctx context.Context, code string) (bool, error) {
	record, err := s.store.AuthorizationCodes().GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return true, nil
		}
		return true, fmt.Errorf("get authorization code: %w", err)
	}
	return record.Revoked, nil
}

// Consume validates a code for exchange by the given client and revokes it
// so it cannot be replayed. Unknown, expired, revoked and wrong-client
// codes all return ErrCodeInvalid.
func (s *CodeService) Consume(ctx context.Context, code string, clientID string) (domain.AuthorizationCode, error) {
	record, err := s.store.AuthorizationCodes().GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, ErrCodeInvalid
		}
		return domain.AuthorizationCode{}, fmt.Errorf("get authorization code: %w", err)
	}

	if record.Revoked || record.Expired(s.now().UTC()) || record.ClientID != clientID {
		return domain.AuthorizationCode{}, ErrCodeInvalid
	}

	if err := s.Revoke(ctx, code); err != nil {
		return domain.AuthorizationCode{}, err
	}
	return record, nil
}

// PurgeExpired removes codes past their expiry. Run opportunistically; the
// exchange path never depends on it.
func (s *CodeService) PurgeExpired(ctx context.Context) error {
	if err := s.store.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx); err != nil {
		return fmt.Errorf("purge expired authorization codes: %w", err)
	}
	return nil
}
