package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/incuhub/incuhub/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionsPurge removes expired session rows.
	TaskTypeSessionsPurge = "sessions:purge"
	// TaskTypeAuditTrim enforces the audit log retention window.
	TaskTypeAuditTrim = "audit:trim"
)

// SessionPurger deletes session rows that expired before the cutoff.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// AuditTrimmer deletes audit rows older than the retention window.
type AuditTrimmer interface {
	Trim(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditTrimPayload carries the retention window for an audit trim run.
type AuditTrimPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewSessionsPurgeTask constructs the periodic session purge task.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionsPurge, nil)
}

// NewAuditTrimTask constructs the periodic audit trim task.
func NewAuditTrimTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditTrimPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditTrim, data), nil
}

// Maintenance bundles the handlers for housekeeping tasks.
type Maintenance struct {
	Sessions SessionPurger
	Audit    AuditTrimmer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// HandleSessionsPurge processes TaskTypeSessionsPurge tasks.
func (m Maintenance) HandleSessionsPurge(ctx context.Context, t *asynq.Task) error {
	if m.Sessions == nil {
		return nil
	}
	tracker := m.Metrics.Track(TaskTypeSessionsPurge)
	removed, err := m.Sessions.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return tracker.End(err)
	}
	m.Metrics.AddRemoved(TaskTypeSessionsPurge, removed)
	if m.Logger != nil {
		m.Logger.Info("purged expired sessions", slog.Int64("removed", removed))
	}
	return tracker.End(nil)
}

// HandleAuditTrim processes TaskTypeAuditTrim tasks.
func (m Maintenance) HandleAuditTrim(ctx context.Context, t *asynq.Task) error {
	if m.Audit == nil {
		return nil
	}
	var payload AuditTrimPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		return asynq.SkipRetry
	}
	tracker := m.Metrics.Track(TaskTypeAuditTrim)
	removed, err := m.Audit.Trim(ctx, payload.Retention)
	if err != nil {
		return tracker.End(err)
	}
	m.Metrics.AddRemoved(TaskTypeAuditTrim, removed)
	if m.Logger != nil {
		m.Logger.Info("trimmed audit log", slog.Int64("removed", removed))
	}
	return tracker.End(nil)
}
