// Package access implements the policy core: a pure decision engine over a
// static resource registry, plus the navigation visibility filter.
package access

import "github.com/incuhub/incuhub/internal/identity"

// Actions an identity can request on a resource.
const (
	ActionList   = "list"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionShow   = "show"
)

// Resource is a named navigable unit of the application. Common resources
// are reachable by every authenticated identity; gated resources require an
// exact role match.
type Resource struct {
	Name         string        `json:"name"`
	RequiredRole identity.Role `json:"required_role,omitempty"`
	Common       bool          `json:"common,omitempty"`
}

// Decision is the outcome of a policy evaluation. Every denial carries a
// human-readable reason.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision {
	if reason == "" {
		reason = "access denied"
	}
	return Decision{Allowed: false, Reason: reason}
}
