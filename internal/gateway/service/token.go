package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/pkg/jwtx"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
)

// TokenRequest is the parsed form of a /token call.
type TokenRequest struct {
	GrantType    string
	Code         string
	ClientKey    string
	ClientSecret string
	Scopes       []string
}

// TokenService drives the token leg of the protocol: client credential
// validation, code exchange and access token signing. Access and refresh
// tokens are never persisted; access tokens are self-contained JWTs and
// refresh tokens are unsupported.
type TokenService struct {
	clients    *ClientService
	codes      *CodeService
	authorizer *scope.Authorizer
	signer     jwtx.Signer
	issuer     string
	accessTTL  time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewTokenService(
	clients *ClientService,
	codes *CodeService,
	authorizer *scope.Authorizer,
	signer jwtx.Signer,
	issuer string,
	accessTTL time.Duration,
	log *slog.Logger,
) *TokenService {
	return &TokenService{
		clients:    clients,
		codes:      codes,
		authorizer: authorizer,
		signer:     signer,
		issuer:     issuer,
		accessTTL:  accessTTL,
		log:        log,
		now:        time.Now,
	}
}

// Token processes a token request. The returned error, when non-nil, is
// always an *oauth2x.Error ready for the wire.
func (s *TokenService) Token(ctx context.Context, req *TokenRequest) (*oauth2x.TokenResponse, error) {
	client, err := s.clients.ValidateClient(ctx, req.ClientKey, req.ClientSecret, req.GrantType)
	if err != nil {
		switch {
		case errors.Is(err, ErrClientNotFound), errors.Is(err, ErrInvalidClientCredentials):
			return nil, oauth2x.ErrInvalidClient
		default:
			return nil, oauth2x.ErrServerError
		}
	}

	switch req.GrantType {
	case domain.GrantAuthorizationCode:
		return s.exchangeCode(ctx, client, req)
	case domain.GrantClientCredentials:
		return s.clientCredentials(ctx, client, req)
	case domain.GrantRefreshToken:
		// Deliberately unsupported; fail loudly rather than pretend.
		s.log.WarnContext(ctx, "refresh_token grant requested",
			slog.String("client_id", client.ID),
			slog.Any("error", ErrRefreshNotImplemented))
		return nil, oauth2x.NewError(http.StatusBadRequest,
			oauth2x.ErrorCodeUnsupportedGrantType,
			"refresh_token grant is not implemented")
	default:
		return nil, oauth2x.ErrUnsupportedGrantType
	}
}

func (s *TokenService) exchangeCode(ctx context.Context, client domain.Client, req *TokenRequest) (*oauth2x.TokenResponse, error) {
	if req.Code == "" {
		return nil, oauth2x.ErrInvalidRequest
	}

	code, err := s.codes.Consume(ctx, req.Code, client.ID)
	if err != nil {
		if errors.Is(err, ErrCodeInvalid) {
			return nil, oauth2x.ErrInvalidGrant
		}
		return nil, oauth2x.ErrServerError
	}

	subject := code.UserID
	if subject == "" {
		subject = client.ID
	}
	return s.issueAccessToken(ctx, client, subject, code.Scopes)
}

func (s *TokenService) clientCredentials(ctx context.Context, client domain.Client, req *TokenRequest) (*oauth2x.TokenResponse, error) {
	granted, err := s.authorizer.FinalizeScopes(client, req.Scopes)
	if err != nil {
		var invalid *scope.InvalidScopeError
		if errors.As(err, &invalid) {
			return nil, oauth2x.NewError(http.StatusBadRequest,
				oauth2x.ErrorCodeInvalidScope,
				"scope "+invalid.Scope+" is not permitted for this client")
		}
		return nil, oauth2x.ErrServerError
	}
	return s.issueAccessToken(ctx, client, client.ID, granted)
}

func (s *TokenService) issueAccessToken(ctx context.Context, client domain.Client, subject string, scopes []string) (*oauth2x.TokenResponse, error) {
	claims := jwtx.NewAccessClaims(subject, client.ID, scopes, s.accessTTL, s.issuer, s.now().UTC())
	token, err := s.signer.Sign(claims)
	if err != nil {
		s.log.ErrorContext(ctx, "access token signing failed", slog.Any("error", err))
		return nil, oauth2x.ErrServerError
	}

	s.log.InfoContext(ctx, "access token issued",
		slog.String("client_id", client.ID),
		slog.String("subject", subject))
	return &oauth2x.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Scope:       strings.Join(scopes, " "),
	}, nil
}
