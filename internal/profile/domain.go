package profile

import (
	"time"

	"github.com/incuhub/incuhub/internal/identity"
)

// Profile carries the program-facing fields of a user: display name, avatar
// and, crucially, the role. The role exists only here; the authentication
// session never carries one.
type Profile struct {
	UserID    int64         `json:"user_id"`
	Name      string        `json:"name"`
	Role      identity.Role `json:"role,omitempty"`
	AvatarURL string        `json:"avatar_url,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
