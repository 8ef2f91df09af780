package domain

import "time"

// Identity is the per-request authenticated principal, produced by either
// the API-key or the bearer-token authenticator.
type Identity struct {
	// ClientID of the resolving client, always set.
	ClientID string

	// UserID of the bound host user, empty for client-only identities.
	UserID string

	// Roles is the effective, deduplicated role set.
	Roles []string

	// Scopes granted to the credential (bearer tokens only).
	Scopes []string
}

// HasRole reports membership in the identity's effective role set.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// APISession is the stored identity for an API-key credential. It is keyed
// by the key's fingerprint and cleared whenever the same credential later
// fails authentication, so a revoked or disabled key cannot ride on a stale
// session.
type APISession struct {
	KeyHash   string
	ClientID  string
	Roles     []string
	CreatedAt time.Time
}
