package scope

import (
	"fmt"

	"github.com/inkwellhq/apigate/internal/gateway/domain"
)

// InvalidScopeError reports a requested scope the client's roles do not
// cover. The offending scope is carried so protocol handlers can name
// it in the error_description.
type InvalidScopeError struct {
	Scope string
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("scope %q is not permitted for this client", e.Scope)
}

// Authorizer narrows a requested scope set against the roles a client
// carries.
type Authorizer struct {
	translator *Translator
}

func NewAuthorizer(t *Translator) *Authorizer {
	return &Authorizer{translator: t}
}

// FinalizeScopes decides the scopes actually granted for a request.
//
// A client with no roles places no restriction and the requested scopes
// pass through unfiltered. An empty request grants the client's full
// role set, expressed as scopes. Otherwise every requested scope must
// map to a role the client carries; the first miss fails the whole
// request with an InvalidScopeError naming that scope.
func (a *Authorizer) FinalizeScopes(client domain.RoleCarrier, requested []string) ([]string, error) {
	// Only role-carrying clients participate in narrowing; anything else
	// gets an empty grant.
	if client == nil {
		return []string{}, nil
	}

	allowed := client.AllowedRoles()
	if len(allowed) == 0 {
		return requested, nil
	}
	if len(requested) == 0 {
		return a.translator.ToScopes(allowed), nil
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	granted := make([]string, 0, len(requested))
	for _, s := range requested {
		if _, ok := allowedSet[a.translator.ToRole(s)]; !ok {
			return nil, &InvalidScopeError{Scope: s}
		}
		granted = append(granted, s)
	}
	return granted, nil
}
