package domain

import "time"

// AuthorizationCode represents an OAuth 2.0 authorization code issuance.
// The identifier doubles as the opaque code value handed to the client and
// is immutable once persisted; re-issuing the same identifier is a conflict.
type AuthorizationCode struct {
	ID        string
	ClientID  string
	UserID    string // empty for client-only flows
	Scopes    []string
	Revoked   bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given instant.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
