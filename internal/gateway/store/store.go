package store

import (
	"context"
	"errors"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop transactions from nesting by accident.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	Roles() Roles
	Users() Users
	Sessions() Sessions
	Pages() Pages

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view over the same repositories.
type Tx interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	Roles() Roles
	Users() Users
	Sessions() Sessions
	Pages() Pages
}

type Clients interface {
	// GetClientByAPIKey fetches a client by its (already trimmed) API key,
	// regardless of enabled state. Callers enforce the enabled flag.
	GetClientByAPIKey(ctx context.Context, apiKey string) (domain.Client, error)

	// GetClientByID fetches a client by primary identifier.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client. The API key must be unique.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClient replaces the client's mutable fields, including the
	// regenerated API key, and bumps updated_at.
	UpdateClient(ctx context.Context, c domain.Client) error

	// DeleteClient removes a client and cascades to its codes and sessions.
	DeleteClient(ctx context.Context, id string) error
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted code. A duplicate
	// identifier surfaces as ErrAlreadyExists via the unique index - the
	// check-then-insert race is closed at the storage layer.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCode fetches a code by identifier.
	GetAuthorizationCode(ctx context.Context, id string) (domain.AuthorizationCode, error)

	// RevokeAuthorizationCode flips revoked. Missing codes are a no-op.
	RevokeAuthorizationCode(ctx context.Context, id string) error

	// DeleteExpiredAuthorizationCodes removes codes past expiry (housekeeping).
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

// Roles is the boundary to the host's role registry. The gateway only asks
// existence questions and enumerates; role lifecycle is the host's business.
type Roles interface {
	// RoleExists reports whether the named role is registered.
	RoleExists(ctx context.Context, name string) (bool, error)

	// ListRoles returns the full registry.
	ListRoles(ctx context.Context) ([]domain.Role, error)

	// CreateRole registers a role (bootstrap/seeding only).
	CreateRole(ctx context.Context, r domain.Role) error
}

type Users interface {
	// GetUserByID returns a host user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername returns a host user by username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a user (id provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error
}

type Sessions interface {
	// PutSession stores or replaces the identity for a credential fingerprint.
	PutSession(ctx context.Context, s domain.APISession) error

	// GetSession returns the stored identity for a credential fingerprint.
	GetSession(ctx context.Context, keyHash string) (domain.APISession, error)

	// DeleteSession removes the stored identity. Missing sessions are a no-op.
	DeleteSession(ctx context.Context, keyHash string) error
}

type Pages interface {
	// GetPageBySlug returns a single page.
	GetPageBySlug(ctx context.Context, slug string) (domain.Page, error)

	// ListPages returns pages, optionally including unpublished ones.
	ListPages(ctx context.Context, includeUnpublished bool) ([]domain.Page, error)

	// CreatePage inserts a page (seeding and tests).
	CreatePage(ctx context.Context, p domain.Page) error
}
