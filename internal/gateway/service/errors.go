package service

import "errors"

// Sentinel errors returned by the gateway services. Handlers map these to
// wire-level responses with errors.Is.
var (
	// ErrClientNotFound is returned when no enabled client matches the
	// presented credential.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidClientCredentials is returned when a confidential client
	// fails secret verification or requests a disallowed grant type.
	ErrInvalidClientCredentials = errors.New("invalid client credentials")

	// ErrDuplicateIdentifier is returned when persisting an authorization
	// code whose identifier already exists. Callers retry with a fresh
	// identifier.
	ErrDuplicateIdentifier = errors.New("authorization code identifier already exists")

	// ErrCodeInvalid is returned when an authorization code is unknown,
	// expired, revoked, or bound to a different client.
	ErrCodeInvalid = errors.New("authorization code invalid")

	// ErrRefreshNotImplemented is returned for any refresh-token operation.
	// Refresh tokens are deliberately unsupported in this protocol subset;
	// the failure is loud so the gap is never mistaken for a silent success.
	ErrRefreshNotImplemented = errors.New("refresh tokens are not implemented")
)
