package identity

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/incuhub/incuhub/internal/shared"
)

// Account carries the session-level fields owned by the auth module.
type Account struct {
	Email     string
	AvatarURL string
}

// ProfileRecord carries the profile-level fields owned by the profile module.
// Role never comes from anywhere else. The avatar stays a session-level field
// and is taken from the account only.
type ProfileRecord struct {
	Name string
	Role Role
}

// AccountSource looks up account fields for a session user.
type AccountSource interface {
	FindAccount(ctx context.Context, userID int64) (Account, error)
}

// ProfileSource looks up the profile record for a session user.
type ProfileSource interface {
	FindProfile(ctx context.Context, userID int64) (ProfileRecord, error)
}

// Source produces the current identity for a request. Implementations must
// return a zero Identity with a nil error when no session is active.
type Source interface {
	Resolve(ctx context.Context) (Identity, error)
}

// Resolver combines the ambient session with account and profile lookups.
// Lookup failures degrade the identity instead of propagating: presence
// fails open, authorization fails closed via the absent role.
type Resolver struct {
	accounts AccountSource
	profiles ProfileSource
	logger   *slog.Logger
}

// NewResolver constructs a Resolver. The profile source may be nil at
// construction and bound later with SetProfiles, because the profile service
// in turn depends on the cached resolver for invalidation.
func NewResolver(accounts AccountSource, profiles ProfileSource, logger *slog.Logger) *Resolver {
	return &Resolver{accounts: accounts, profiles: profiles, logger: logger}
}

// SetProfiles binds the profile source after construction. Call before
// serving requests.
func (r *Resolver) SetProfiles(profiles ProfileSource) {
	r.profiles = profiles
}

// Resolve produces the identity for the session stored in ctx.
func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return Identity{}, nil
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return Identity{}, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("identity parse user id", slog.String("value", raw))
		}
		return Identity{}, nil
	}

	ident := Identity{ID: raw}

	if acct, err := r.accounts.FindAccount(ctx, userID); err != nil {
		if r.logger != nil && !errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("identity account lookup", slog.String("user_id", raw), slog.Any("error", err))
		}
	} else {
		ident.Email = acct.Email
		ident.AvatarURL = acct.AvatarURL
	}

	if r.profiles == nil {
		if ident.Name == "" {
			ident.Name = DisplayName(ident.Email)
		}
		return ident, nil
	}

	if prof, err := r.profiles.FindProfile(ctx, userID); err != nil {
		if r.logger != nil && !errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("identity profile lookup", slog.String("user_id", raw), slog.Any("error", err))
		}
	} else {
		ident.Name = prof.Name
		ident.Role = prof.Role
	}

	if ident.Name == "" {
		ident.Name = DisplayName(ident.Email)
	}
	return ident, nil
}
