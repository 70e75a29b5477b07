package jobs

import (
	"context"
	"fmt"
	"time"

	"gearrent-backend/internal/config"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/repository"
)

// Job names accepted by RunJob
const (
	JobAuditInventory        = "audit-inventory"
	JobReconcileReservations = "reconcile-reservations"
	JobPruneOperations       = "prune-operations"
	JobAll                   = "all"
)

// OperationPruner is the ledger call used by the prune job
type OperationPruner interface {
	PruneOperations(ctx context.Context, ref string, cutoff time.Time, keep func(opID string) bool) (int, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	items    repository.ItemRepository
	bookings repository.BookingRepository
	reports  repository.DamageReportRepository
	ledger   OperationPruner
	config   *config.Config
	timeout  time.Duration
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(
	items repository.ItemRepository,
	bookings repository.BookingRepository,
	reports repository.DamageReportRepository,
	ledger OperationPruner,
	cfg *config.Config,
) *JobRunner {
	return &JobRunner{
		items:    items,
		bookings: bookings,
		reports:  reports,
		ledger:   ledger,
		config:   cfg,
		timeout:  10 * time.Minute,
		now:      time.Now,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// RunJob runs one job by name, or every job for JobAll (for manual execution)
func (jr *JobRunner) RunJob(name string) error {
	switch name {
	case JobAuditInventory:
		return jr.runWithRecovery("AuditInventoryInvariants", jr.auditOnly)
	case JobReconcileReservations:
		return jr.runWithRecovery("ReconcileReservations", jr.reconcileOnly)
	case JobPruneOperations:
		return jr.runWithRecovery("PruneAppliedOperations", jr.pruneOnly)
	case JobAll:
		var firstErr error
		for _, job := range []string{JobAuditInventory, JobReconcileReservations, JobPruneOperations} {
			if err := jr.RunJob(job); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return fmt.Errorf("unknown job %q", name)
}

// AuditInventoryInvariants is the cron entry for the invariant audit
func (jr *JobRunner) AuditInventoryInvariants() {
	_ = jr.RunJob(JobAuditInventory)
}

// ReconcileReservations is the cron entry for the reservation reconciliation
func (jr *JobRunner) ReconcileReservations() {
	_ = jr.RunJob(JobReconcileReservations)
}

// PruneAppliedOperations is the cron entry for idempotency record cleanup
func (jr *JobRunner) PruneAppliedOperations() {
	_ = jr.RunJob(JobPruneOperations)
}

func (jr *JobRunner) auditOnly(ctx context.Context) error {
	_, err := jr.Audit(ctx)
	return err
}

func (jr *JobRunner) reconcileOnly(ctx context.Context) error {
	_, err := jr.Reconcile(ctx)
	return err
}

func (jr *JobRunner) pruneOnly(ctx context.Context) error {
	_, err := jr.Prune(ctx)
	return err
}
