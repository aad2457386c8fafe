package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !acct.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return acct, nil
}

// FindAccount exposes session-level identity fields to the identity
// resolver.
func (s *Service) FindAccount(ctx context.Context, userID int64) (identity.Account, error) {
	acct, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return identity.Account{}, err
	}
	return identity.Account{Email: acct.Email, AvatarURL: acct.AvatarURL}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

var _ identity.AccountSource = (*Service)(nil)
