package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/incuhub/incuhub/internal/shared"
)

type mockRepository struct {
	byEmail map[string]*Account
	byID    map[int64]*Account

	sessions       map[string]int64
	sessionExpiry  map[string]time.Time
	deleteSessions []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byEmail:       make(map[string]*Account),
		byID:          make(map[int64]*Account),
		sessions:      make(map[string]int64),
		sessionExpiry: make(map[string]time.Time),
	}
}

func (m *mockRepository) addAccount(t *testing.T, id int64, email, password string, active bool) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	acct := &Account{ID: id, Email: email, PasswordHash: string(hash), IsActive: active}
	m.byEmail[email] = acct
	m.byID[id] = acct
	return acct
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	acct, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acct, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	acct, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acct, nil
}

func (m *mockRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	m.sessions[id] = userID
	m.sessionExpiry[id] = expiresAt
	return nil
}

func (m *mockRepository) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	m.deleteSessions = append(m.deleteSessions, id)
	return nil
}

func (m *mockRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	for id, exp := range m.sessionExpiry {
		if exp.Before(before) {
			delete(m.sessions, id)
			delete(m.sessionExpiry, id)
			removed++
		}
	}
	return removed, nil
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount(t, 1, "jane.doe@acme.io", "s3cret-pass", true)
	svc := NewService(repo)

	acct, err := svc.Authenticate(context.Background(), "jane.doe@acme.io", "s3cret-pass")

	require.NoError(t, err)
	assert.Equal(t, int64(1), acct.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount(t, 1, "jane.doe@acme.io", "s3cret-pass", true)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "jane.doe@acme.io", "wrong-pass")

	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Authenticate(context.Background(), "ghost@acme.io", "whatever1")

	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount(t, 1, "jane.doe@acme.io", "s3cret-pass", false)
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "jane.doe@acme.io", "s3cret-pass")

	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestFindAccountExposesIdentityFields(t *testing.T) {
	repo := newMockRepository()
	acct := repo.addAccount(t, 42, "jane.doe@acme.io", "s3cret-pass", true)
	acct.AvatarURL = "https://cdn/a.png"
	svc := NewService(repo)

	found, err := svc.FindAccount(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "jane.doe@acme.io", found.Email)
	assert.Equal(t, "https://cdn/a.png", found.AvatarURL)
}

func TestFindAccountNotFound(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.FindAccount(context.Background(), 99)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.RegisterSession(ctx, "s1", 42, time.Now().Add(time.Hour), "127.0.0.1", "test"))
	assert.Equal(t, int64(42), repo.sessions["s1"])

	require.NoError(t, svc.RemoveSession(ctx, "s1"))
	assert.NotContains(t, repo.sessions, "s1")
}
