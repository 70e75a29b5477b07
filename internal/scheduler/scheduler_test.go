package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/config"
	"gearrent-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		AuditInventory:        "0 0 * * * *",
		ReconcileReservations: "0 15 2 * * *",
		PruneOperations:       "0 0 4 * * 0",
	}}

	s, err := NewScheduler(jobs.NewJobRunner(nil, nil, nil, nil, cfg))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		AuditInventory:        "every hour",
		ReconcileReservations: "0 15 2 * * *",
		PruneOperations:       "0 0 4 * * 0",
	}}

	_, err := NewScheduler(jobs.NewJobRunner(nil, nil, nil, nil, cfg))
	assert.ErrorContains(t, err, "AuditInventoryInvariants")
}
