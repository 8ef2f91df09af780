package domain

import (
	"slices"
	"time"
)

// Grant types a client may be restricted to.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// Client is a registered API client application. Its API key is the lookup
// identity and is regenerated on every save, not just on creation - callers
// must never assume key stability across updates.
type Client struct {
	ID           string
	APIKey       string
	Name         string
	Enabled      bool
	Roles        []string // empty = unrestricted
	SecretHash   string   // empty = public (non-confidential) client
	RedirectURI  string
	RefererRegex string
	GrantTypes   []string // empty = no restriction

	// AllowPlainChallenge permits the weaker "plain" PKCE method. Off by
	// default; only clients that cannot compute S256 should enable it.
	AllowPlainChallenge bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Confidential reports whether the client holds a secret.
func (c Client) Confidential() bool { return c.SecretHash != "" }

// AllowsGrantType reports whether the client may use the given grant type.
// An empty grant-type list or an empty requested type means no restriction.
func (c Client) AllowsGrantType(grantType string) bool {
	if grantType == "" || len(c.GrantTypes) == 0 {
		return true
	}
	return slices.Contains(c.GrantTypes, grantType)
}

// HasRole reports membership in the client's allowed role set.
func (c Client) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// RoleCarrier is satisfied by client representations that carry a role set.
// Scope narrowing only applies to these; anything else gets an empty grant.
type RoleCarrier interface {
	AllowedRoles() []string
}

// AllowedRoles implements RoleCarrier.
func (c Client) AllowedRoles() []string { return c.Roles }
