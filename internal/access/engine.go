package access

import (
	"fmt"

	"github.com/incuhub/incuhub/internal/identity"
)

// Engine evaluates access decisions against a registry snapshot. It is a
// pure function of its inputs: no I/O, no time dependence, no hidden state.
type Engine struct {
	registry *Registry
}

// NewEngine constructs an Engine over the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Decide evaluates whether the identity may perform action on the named
// resource. Rules apply in fixed precedence; the first match wins:
//
//  1. unresolved identities are denied outright
//  2. Operations users may not list the common resources; they are scoped
//     to their own section
//  3. common resources are open to every authenticated identity
//  4. gated resources require an exact role match
//  5. anything else is open to any authenticated identity
func (e *Engine) Decide(ident identity.Identity, resource, action string) Decision {
	if !ident.Resolved() {
		return Deny("unauthenticated")
	}

	res, registered := e.registry.Lookup(resource)

	if registered && res.Common {
		if ident.Role == identity.RoleOperations && action == ActionList {
			return Deny("resource not available for Operations users.")
		}
		return Allow()
	}

	if registered && res.RequiredRole != identity.RoleNone {
		if !ident.HasRole() {
			return Deny("role unresolved")
		}
		if ident.Role != res.RequiredRole {
			return Deny(fmt.Sprintf("%s requires %s privileges.", res.Name, res.RequiredRole))
		}
		return Allow()
	}

	// Unregistered and ungated resources default to allow for authenticated
	// identities. Deliberately permissive; see DESIGN.md.
	return Allow()
}
