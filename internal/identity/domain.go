package identity

// Role classifies an identity's permission tier. Comparison is exact and
// case-sensitive; there is no hierarchy between roles.
type Role string

// Known roles within the incubation program.
const (
	RoleNone       Role = ""
	RoleAdmin      Role = "Admin"
	RoleDirector   Role = "Director"
	RoleOperations Role = "Operations"
	RoleConsultant Role = "Consultant"
	RoleIncubatee  Role = "Incubatee"
	RoleFunder     Role = "Funder"
	RoleGovernment Role = "Government"
	RoleCorporate  Role = "Corporate"
)

// KnownRoles lists every role the platform recognises.
func KnownRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleDirector,
		RoleOperations,
		RoleConsultant,
		RoleIncubatee,
		RoleFunder,
		RoleGovernment,
		RoleCorporate,
	}
}

// Known reports whether the role is part of the recognised set.
func (r Role) Known() bool {
	for _, known := range KnownRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// Identity is the resolved representation of the authenticated actor. A zero
// Identity means no session is active (unresolved). A resolved Identity may
// still carry RoleNone when the profile record is missing or unreadable;
// role-gated checks treat that as matching no required role.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Resolved reports whether the identity belongs to an authenticated session.
func (i Identity) Resolved() bool {
	return i.ID != ""
}

// HasRole reports whether a role could be resolved for the identity.
func (i Identity) HasRole() bool {
	return i.Role != RoleNone
}
