package program

import "time"

// Company is a portfolio company enrolled in the incubation program.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	Stage     string    `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Program stages a company moves through.
const (
	StageApplied   = "applied"
	StageIncubated = "incubated"
	StageGraduated = "graduated"
	StageExited    = "exited"
)

// StageChange records one transition in a company's lifecycle.
type StageChange struct {
	CompanyID int64     `json:"company_id"`
	FromStage string    `json:"from_stage,omitempty"`
	ToStage   string    `json:"to_stage"`
	At        time.Time `json:"at"`
}

// Summary aggregates counts for the dashboard.
type Summary struct {
	TotalCompanies int64            `json:"total_companies"`
	ByStage        map[string]int64 `json:"by_stage"`
}
