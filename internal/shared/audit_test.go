package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurredAtDefaultsToNow(t *testing.T) {
	entry := AuditLog{Action: AuditActionLogin, Entity: "session", EntityID: "sess-1"}

	at := entry.occurredAt()

	require.False(t, at.IsZero())
	assert.WithinDuration(t, time.Now(), at, time.Second)

	// A freshly recorded entry must land inside the retention window, or the
	// weekly trim job would delete it on its next run.
	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	assert.True(t, at.After(cutoff))
}

func TestOccurredAtKeepsExplicitTimestamp(t *testing.T) {
	want := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	entry := AuditLog{Action: AuditActionLogout, Entity: "session", EntityID: "sess-2", At: want}

	assert.Equal(t, want, entry.occurredAt())
}
