package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incuhub/incuhub/internal/identity"
	"github.com/incuhub/incuhub/internal/shared"
)

const uniqueViolation = "23505"

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	FindByUserID(ctx context.Context, userID int64) (Profile, error)
	List(ctx context.Context, limit, offset int) ([]Profile, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, p Profile) (Profile, error)
	SetRole(ctx context.Context, userID int64, role identity.Role) (Profile, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByUserID fetches the profile for a user.
func (r *Repository) FindByUserID(ctx context.Context, userID int64) (Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT user_id, name, COALESCE(role, ''), COALESCE(avatar_url, ''), created_at, updated_at FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// List returns one page of profiles ordered by user id.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, name, COALESCE(role, ''), COALESCE(avatar_url, ''), created_at, updated_at FROM profiles ORDER BY user_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Role, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Count returns the total number of profiles.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Create inserts a profile row for a user.
func (r *Repository) Create(ctx context.Context, p Profile) (Profile, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO profiles (user_id, name, role, avatar_url, created_at, updated_at) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NOW(), NOW()) RETURNING user_id, name, COALESCE(role, ''), COALESCE(avatar_url, ''), created_at, updated_at`,
		p.UserID, p.Name, string(p.Role), p.AvatarURL)
	created, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Profile{}, shared.ErrDuplicate
		}
		return Profile{}, err
	}
	return created, nil
}

// SetRole updates the role for a user's profile.
func (r *Repository) SetRole(ctx context.Context, userID int64, role identity.Role) (Profile, error) {
	row := r.pool.QueryRow(ctx, `UPDATE profiles SET role = NULLIF($2, ''), updated_at = NOW() WHERE user_id = $1 RETURNING user_id, name, COALESCE(role, ''), COALESCE(avatar_url, ''), created_at, updated_at`,
		userID, string(role))
	return scanProfile(row)
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Role, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

var _ RepositoryPort = (*Repository)(nil)
