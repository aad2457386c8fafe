package program

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incuhub/incuhub/internal/platform/db"
	"github.com/incuhub/incuhub/internal/shared"
)

const uniqueViolation = "23505"

// RepositoryPort defines data access methods for program records.
type RepositoryPort interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	CreateCompany(ctx context.Context, c Company) (Company, error)
	UpdateStage(ctx context.Context, companyID int64, stage string) (Company, error)
	StageHistory(ctx context.Context, companyID int64) ([]StageChange, error)
	Summary(ctx context.Context) (Summary, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCompanies returns all companies ordered by name.
func (r *Repository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(sector, ''), stage, created_at, updated_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Sector, &c.Stage, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}

// CreateCompany inserts a company record together with its initial stage
// history row.
func (r *Repository) CreateCompany(ctx context.Context, c Company) (Company, error) {
	var created Company
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO companies (name, sector, stage, created_at, updated_at) VALUES ($1, NULLIF($2, ''), $3, NOW(), NOW()) RETURNING id, name, COALESCE(sector, ''), stage, created_at, updated_at`,
			c.Name, c.Sector, c.Stage)
		if err := row.Scan(&created.ID, &created.Name, &created.Sector, &created.Stage, &created.CreatedAt, &created.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO company_stage_history (company_id, from_stage, to_stage, changed_at) VALUES ($1, NULL, $2, NOW())`,
			created.ID, created.Stage)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Company{}, shared.ErrDuplicate
		}
		return Company{}, err
	}
	return created, nil
}

// UpdateStage moves a company to a new stage and records the transition. The
// update and the history row commit together.
func (r *Repository) UpdateStage(ctx context.Context, companyID int64, stage string) (Company, error) {
	var updated Company
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx, `SELECT stage FROM companies WHERE id = $1 FOR UPDATE`, companyID).Scan(&current); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `UPDATE companies SET stage = $2, updated_at = NOW() WHERE id = $1 RETURNING id, name, COALESCE(sector, ''), stage, created_at, updated_at`,
			companyID, stage)
		if err := row.Scan(&updated.ID, &updated.Name, &updated.Sector, &updated.Stage, &updated.CreatedAt, &updated.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO company_stage_history (company_id, from_stage, to_stage, changed_at) VALUES ($1, $2, $3, NOW())`,
			companyID, current, stage)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return updated, nil
}

// StageHistory returns a company's stage transitions, newest first.
func (r *Repository) StageHistory(ctx context.Context, companyID int64) ([]StageChange, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id, COALESCE(from_stage, ''), to_stage, changed_at FROM company_stage_history WHERE company_id = $1 ORDER BY changed_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []StageChange
	for rows.Next() {
		var change StageChange
		if err := rows.Scan(&change.CompanyID, &change.FromStage, &change.ToStage, &change.At); err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

// Summary aggregates company counts by stage.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	rows, err := r.pool.Query(ctx, `SELECT stage, COUNT(*) FROM companies GROUP BY stage`)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	summary := Summary{ByStage: make(map[string]int64)}
	for rows.Next() {
		var stage string
		var count int64
		if err := rows.Scan(&stage, &count); err != nil {
			return Summary{}, err
		}
		summary.ByStage[stage] = count
		summary.TotalCompanies += count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

var _ RepositoryPort = (*Repository)(nil)
