package program

import (
	"context"
	"fmt"
	"strings"
)

// Service handles program business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListCompanies returns the portfolio.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.repo.ListCompanies(ctx)
}

// CreateCompany validates and stores a new company.
func (s *Service) CreateCompany(ctx context.Context, c Company) (Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Company{}, fmt.Errorf("program: company name required")
	}
	if c.Stage == "" {
		c.Stage = StageApplied
	}
	switch c.Stage {
	case StageApplied, StageIncubated, StageGraduated, StageExited:
	default:
		return Company{}, fmt.Errorf("program: unknown stage %q", c.Stage)
	}
	return s.repo.CreateCompany(ctx, c)
}

// UpdateStage validates and applies a stage transition.
func (s *Service) UpdateStage(ctx context.Context, companyID int64, stage string) (Company, error) {
	switch stage {
	case StageApplied, StageIncubated, StageGraduated, StageExited:
	default:
		return Company{}, fmt.Errorf("program: unknown stage %q", stage)
	}
	return s.repo.UpdateStage(ctx, companyID, stage)
}

// StageHistory returns a company's stage transitions.
func (s *Service) StageHistory(ctx context.Context, companyID int64) ([]StageChange, error) {
	return s.repo.StageHistory(ctx, companyID)
}

// Summary aggregates portfolio counts for the dashboard.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}
