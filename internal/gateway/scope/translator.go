// Package scope converts between OAuth2 scope strings and the role
// names used internally for access control, and narrows requested
// scopes against the roles a client is allowed to carry.
package scope

import (
	"context"
	"strings"
)

// RoleRegistry reports whether a role name is known to the host.
type RoleRegistry interface {
	RoleExists(ctx context.Context, name string) (bool, error)
}

// Translator maps scopes to roles and back. The mapping is a pure
// transliteration except for two reserved names: the preview role and
// the base API role, which map to fixed scope strings.
type Translator struct {
	prefix      string
	baseRole    string
	previewRole string
}

// ScopePreview is the scope string reserved for the preview role.
const ScopePreview = "preview"

// ScopeAPI is the scope string reserved for the base API role.
const ScopeAPI = "api"

var roleSeparators = strings.NewReplacer(" ", "_", "-", "_", ".", "_", ":", "_")

func NewTranslator(prefix, baseRole, previewRole string) *Translator {
	return &Translator{
		prefix:      prefix,
		baseRole:    baseRole,
		previewRole: previewRole,
	}
}

// ToScope converts a role name to its scope form. The preview and base
// API roles map to their reserved scopes; any other role is stripped of
// the prefix, underscores become hyphens and the result is lowercased.
func (t *Translator) ToScope(role string) string {
	switch role {
	case t.previewRole:
		return ScopePreview
	case t.baseRole:
		return ScopeAPI
	}
	s := strings.TrimPrefix(role, t.prefix)
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}

// ToRole converts a scope string to its role form. The reserved scopes
// map back to the preview and base API roles; any other scope has its
// separators (space, hyphen, dot, colon) collapsed to underscores, is
// uppercased and gains the prefix.
func (t *Translator) ToRole(scope string) string {
	switch scope {
	case ScopePreview:
		return t.previewRole
	case ScopeAPI:
		return t.baseRole
	}
	r := roleSeparators.Replace(scope)
	return t.prefix + strings.ToUpper(r)
}

// IdentifierToRole converts a scope to a role and checks it against the
// host registry. Unknown roles return ok=false rather than an error so
// callers can decide how strict to be.
func (t *Translator) IdentifierToRole(ctx context.Context, registry RoleRegistry, scope string) (string, bool, error) {
	role := t.ToRole(scope)
	exists, err := registry.RoleExists(ctx, role)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, nil
	}
	return role, true, nil
}

// ToScopes converts a set of roles to scopes, preserving order.
func (t *Translator) ToScopes(roles []string) []string {
	scopes := make([]string, len(roles))
	for i, role := range roles {
		scopes[i] = t.ToScope(role)
	}
	return scopes
}

// ToRoles converts a set of scopes to roles, preserving order.
func (t *Translator) ToRoles(scopes []string) []string {
	roles := make([]string, len(scopes))
	for i, s := range scopes {
		roles[i] = t.ToRole(s)
	}
	return roles
}
