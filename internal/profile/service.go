package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/shared"
)

// UserInvalidator drops cached identities for a user after a role change.
type UserInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Service handles profile business logic.
type Service struct {
	repo        RepositoryPort
	invalidator UserInvalidator
	auditor     *shared.AuditLogger
	logger      *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, invalidator UserInvalidator, auditor *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, auditor: auditor, logger: logger}
}

// Get returns the profile for a user.
func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// List returns one page of profiles with the pagination envelope. The page is
// selected in the database, not sliced in memory.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Profile, shared.Pagination, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	profiles, err := s.repo.List(ctx, pagination.PerPage, (pagination.Page-1)*pagination.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return profiles, pagination, nil
}

// Create registers a profile for a user.
func (s *Service) Create(ctx context.Context, p Profile) (Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Profile{}, fmt.Errorf("profile: name required")
	}
	if p.Role != identity.RoleNone && !p.Role.Known() {
		return Profile{}, fmt.Errorf("profile: unknown role %q", p.Role)
	}
	return s.repo.Create(ctx, p)
}

// AssignRole sets the user's role. The role must be one of the known role
// tags; cached identities for the user are invalidated so the change takes
// effect on the next navigation.
func (s *Service) AssignRole(ctx context.Context, actorID string, userID int64, role identity.Role) (Profile, error) {
	if !role.Known() {
		return Profile{}, fmt.Errorf("profile: unknown role %q", role)
	}
	updated, err := s.repo.SetRole(ctx, userID, role)
	if err != nil {
		return Profile{}, err
	}
	if s.invalidator != nil {
		if err := s.invalidator.InvalidateUser(ctx, strconv.FormatInt(userID, 10)); err != nil && s.logger != nil {
			s.logger.Warn("invalidate user identities", slog.Any("error", err))
		}
	}
	if s.auditor != nil {
		err := s.auditor.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditActionRoleAssigned,
			Entity:   "profile",
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     map[string]any{"role": string(role)},
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("audit role change", slog.Any("error", err))
		}
	}
	return updated, nil
}

// FindProfile exposes profile fields to the identity resolver.
func (s *Service) FindProfile(ctx context.Context, userID int64) (identity.ProfileRecord, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return identity.ProfileRecord{}, err
	}
	return identity.ProfileRecord{Name: p.Name, Role: p.Role}, nil
}

var _ identity.ProfileSource = (*Service)(nil)
