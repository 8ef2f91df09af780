package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
	"github.com/inkwellhq/apigate/internal/gateway/scope"
	"github.com/inkwellhq/apigate/pkg/oauth2x"
)

// PKCE code challenge methods.
const (
	ChallengeMethodS256  = "S256"
	ChallengeMethodPlain = "plain"
)

// persistRetries bounds retrying code persistence on identifier collision.
const persistRetries = 3

// AuthorizationRequest is the parsed form of an /authorize call.
type AuthorizationRequest struct {
	ResponseType        string
	ClientKey           string
	RedirectURI         string
	Scopes              []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ShortCircuitResponse is an HTTP response a resolver substitutes for the
// normal protocol flow, typically a redirect to a login or consent page. It
// is returned to the transport verbatim and no code is issued.
type ShortCircuitResponse struct {
	StatusCode  int
	Location    string
	ContentType string
	Body        []byte
}

// ResolutionEvent is the transient per-request value the resolver chain
// mutates to approve or deny an authorization request. It starts denied.
type ResolutionEvent struct {
	Request *AuthorizationRequest
	Client  domain.Client

	// Roles requested, expressed in the host's role vocabulary.
	Roles []string

	approved bool
	userID   string
	response *ShortCircuitResponse
	stopped  bool
}

// Resolve records the approval decision and stops propagation, so a
// resolver that decides is final.
func (e *ResolutionEvent) Resolve(approved bool) {
	e.approved = approved
	e.stopped = true
}

// BindUser attaches the resolved user identity to the request.
func (e *ResolutionEvent) BindUser(userID string) { e.userID = userID }

// SetResponse installs a short-circuit response and stops propagation.
func (e *ResolutionEvent) SetResponse(resp *ShortCircuitResponse) {
	e.response = resp
	e.stopped = true
}

// StopPropagation halts the chain without changing the decision.
func (e *ResolutionEvent) StopPropagation() { e.stopped = true }

// Approved reports the current decision.
func (e *ResolutionEvent) Approved() bool { return e.approved }

// UserID reports the bound user, empty if none.
func (e *ResolutionEvent) UserID() string { return e.userID }

// Resolver decides the outcome of an authorization request. Resolvers run
// synchronously in registration order; the first to call Resolve,
// SetResponse or StopPropagation ends the chain.
type Resolver interface {
	ResolveAuthorization(ctx context.Context, event *ResolutionEvent) error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, event *ResolutionEvent) error

func (f ResolverFunc) ResolveAuthorization(ctx context.Context, event *ResolutionEvent) error {
	return f(ctx, event)
}

// AuthorizeResult is the outcome of a successful authorize leg: either a
// redirect back to the client carrying the code, or a short-circuit
// response from a resolver.
type AuthorizeResult struct {
	RedirectURL  string
	ShortCircuit *ShortCircuitResponse
}

// AuthorizeService drives the authorization-code leg of the protocol:
// request validation, PKCE method gating, user resolution through the
// resolver chain and code issuance. Every failure surfaces as an
// *oauth2x.Error so nothing escapes as an unhandled fault.
type AuthorizeService struct {
	clients    *ClientService
	codes      *CodeService
	authorizer *scope.Authorizer
	translator *scope.Translator
	resolvers  []Resolver
	log        *slog.Logger
}

func NewAuthorizeService(
	clients *ClientService,
	codes *CodeService,
	authorizer *scope.Authorizer,
	translator *scope.Translator,
	log *slog.Logger,
	resolvers ...Resolver,
) *AuthorizeService {
	return &AuthorizeService{
		clients:    clients,
		codes:      codes,
		authorizer: authorizer,
		translator: translator,
		resolvers:  resolvers,
		log:        log,
	}
}

// Authorize runs the authorize leg. The returned error, when non-nil, is
// always an *oauth2x.Error ready for the wire; the handler decides between
// the JSON body and the error-redirect form based on whether the redirect
// URI was validated.
func (s *AuthorizeService) Authorize(ctx context.Context, req *AuthorizationRequest) (*AuthorizeResult, error) {
	client, err := s.validateRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	// Gate the weak PKCE method before any user resolution runs. A client
	// that disallows plain must never reach the resolver chain with it.
	if req.CodeChallenge != "" {
		method := req.CodeChallengeMethod
		if method == "" {
			method = ChallengeMethodPlain
		}
		switch method {
		case ChallengeMethodS256:
		case ChallengeMethodPlain:
			if !client.AllowPlainChallenge {
				return nil, oauth2x.NewError(http.StatusBadRequest,
					oauth2x.ErrorCodeInvalidRequest,
					"code_challenge_method plain is not allowed for this client")
			}
		default:
			return nil, oauth2x.NewError(http.StatusBadRequest,
				oauth2x.ErrorCodeInvalidRequest,
				"code_challenge_method must be S256 or plain")
		}
	}

	granted, err := s.authorizer.FinalizeScopes(client, req.Scopes)
	if err != nil {
		var invalid *scope.InvalidScopeError
		if errors.As(err, &invalid) {
			return nil, oauth2x.NewError(http.StatusBadRequest,
				oauth2x.ErrorCodeInvalidScope,
				fmt.Sprintf("scope %q is not permitted for this client", invalid.Scope))
		}
		return nil, oauth2x.ErrServerError
	}

	event := &ResolutionEvent{
		Request: req,
		Client:  client,
		Roles:   s.translator.ToRoles(granted),
	}
	for _, r := range s.resolvers {
		if err := r.ResolveAuthorization(ctx, event); err != nil {
			s.log.ErrorContext(ctx, "authorization resolver failed", slog.Any("error", err))
			return nil, oauth2x.ErrServerError
		}
		if event.stopped {
			break
		}
	}

	if event.response != nil {
		return &AuthorizeResult{ShortCircuit: event.response}, nil
	}
	if !event.approved {
		return nil, oauth2x.ErrAccessDenied
	}

	code, err := s.issueCode(ctx, client, event.userID, granted)
	if err != nil {
		s.log.ErrorContext(ctx, "code issuance failed", slog.Any("error", err))
		return nil, oauth2x.ErrServerError
	}

	redirect, err := codeRedirectURL(req.RedirectURI, code, req.State)
	if err != nil {
		return nil, oauth2x.ErrServerError
	}

	s.log.InfoContext(ctx, "authorization code granted",
		slog.String("client_id", client.ID),
		slog.Int("scopes", len(granted)))
	return &AuthorizeResult{RedirectURL: redirect}, nil
}

// validateRequest checks the protocol grammar of the request and resolves
// the client. On success req.RedirectURI holds the effective, validated
// redirect URI.
func (s *AuthorizeService) validateRequest(ctx context.Context, req *AuthorizationRequest) (domain.Client, error) {
	client, err := s.clients.GetClient(ctx, req.ClientKey)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return domain.Client{}, oauth2x.ErrInvalidClient
		}
		return domain.Client{}, oauth2x.ErrServerError
	}

	if req.ResponseType != "code" {
		return domain.Client{}, oauth2x.ErrUnsupportedResponseType
	}
	if !client.AllowsGrantType(domain.GrantAuthorizationCode) {
		return domain.Client{}, oauth2x.ErrUnauthorizedClient
	}

	switch {
	case req.RedirectURI == "" && client.RedirectURI == "":
		return domain.Client{}, oauth2x.NewError(http.StatusBadRequest,
			oauth2x.ErrorCodeInvalidRequest, "redirect_uri is required")
	case req.RedirectURI == "":
		req.RedirectURI = client.RedirectURI
	case client.RedirectURI != "" && req.RedirectURI != client.RedirectURI:
		return domain.Client{}, oauth2x.NewError(http.StatusBadRequest,
			oauth2x.ErrorCodeInvalidRequest, "redirect_uri does not match the registered value")
	}
	if _, err := url.ParseRequestURI(req.RedirectURI); err != nil {
		return domain.Client{}, oauth2x.NewError(http.StatusBadRequest,
			oauth2x.ErrorCodeInvalidRequest, "redirect_uri is not a valid URI")
	}

	return client, nil
}

// issueCode mints and persists a code, retrying on the (astronomically
// unlikely) identifier collision since the conflict is retryable by design.
func (s *AuthorizeService) issueCode(ctx context.Context, client domain.Client, userID string, scopes []string) (string, error) {
	for range persistRetries {
		code, err := s.codes.Issue()
		if err != nil {
			return "", err
		}
		_, err = s.codes.Persist(ctx, code, client, userID, scopes)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrDuplicateIdentifier) {
			return "", err
		}
	}
	return "", ErrDuplicateIdentifier
}

func codeRedirectURL(baseURI, code, state string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
