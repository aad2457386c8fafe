package access

import "github.com/incuhub/incuhub/internal/identity"

// VisibleResources filters the resource list down to what the identity's
// navigation should present, preserving order. The filter is advisory: it
// shapes menus, it does not enforce anything. The engine and guards remain
// the enforcement boundary.
//
// Mirrors the engine's Operations carve-out: Operations users do not see the
// common resources in their navigation.
func VisibleResources(all []Resource, ident identity.Identity) []Resource {
	visible := make([]Resource, 0, len(all))
	for _, res := range all {
		switch {
		case res.Common:
			if ident.Role == identity.RoleOperations {
				continue
			}
			visible = append(visible, res)
		case res.RequiredRole == identity.RoleNone:
			visible = append(visible, res)
		case res.RequiredRole == ident.Role:
			visible = append(visible, res)
		}
	}
	return visible
}
