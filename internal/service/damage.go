package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/repository"
)

type damageService struct {
	reports  repository.DamageReportRepository
	ledger   InventoryLedger
	notifier notify.Notifier
	now      func() time.Time
}

func NewDamageService(reports repository.DamageReportRepository, ledger InventoryLedger, notifier notify.Notifier) DamageService {
	return &damageService{
		reports:  reports,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// ReportDamage takes one unit out of service and records the report. If the
// report cannot be saved the unit is put back. The customer email is sent
// last and its failure does not undo anything.
func (s *damageService) ReportDamage(ctx context.Context, req ReportDamageRequest) (*DamageOutcome, error) {
	logger.EnterMethod("damageService.ReportDamage", "item", req.ItemRef, "bookingID", req.BookingID)

	if strings.TrimSpace(req.ItemRef) == "" {
		return nil, fmt.Errorf("%w: item is required", domain.ErrInvalidInput)
	}
	if !req.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, req.Severity)
	}
	if req.EstimatedRepairCost.IsNegative() {
		return nil, fmt.Errorf("%w: repair cost cannot be negative", domain.ErrInvalidInput)
	}

	id := uuid.New().String()
	res, err := s.ledger.MarkDamaged(ctx, req.ItemRef, damageOpID(id))
	if err != nil {
		metrics.DamageReportTransitions.WithLabelValues("report", "failed").Inc()
		logger.ExitMethodWithError("damageService.ReportDamage", err, "item", req.ItemRef)
		return nil, err
	}

	now := s.now()
	report := &domain.DamageReport{
		ID:                  id,
		ItemID:              res.ItemID,
		ItemName:            res.ItemName,
		BookingID:           req.BookingID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		Description:         req.Description,
		Severity:            req.Severity,
		Status:              domain.DamageStatusDamaged,
		EstimatedRepairCost: req.EstimatedRepairCost,
		ReportedAt:          now,
		UpdatedAt:           now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		err = fmt.Errorf("saving damage report for %s: %w", res.ItemID, err)
		if _, cerr := s.ledger.MarkRepairedOrRestored(ctx, res.ItemID, damageOpID(id), opID(id, "restore")); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: restoring %s after failed report: %w", domain.ErrIndeterminate, res.ItemID, cerr))
		}
		metrics.DamageReportTransitions.WithLabelValues("report", "failed").Inc()
		logger.ExitMethodWithError("damageService.ReportDamage", err, "reportID", id)
		return nil, err
	}
	metrics.DamageReportTransitions.WithLabelValues("report", "applied").Inc()

	outcome := &DamageOutcome{Report: report}
	if report.CustomerEmail != "" {
		outcome.NotificationErr = s.notifier.Send(ctx, notify.Message{
			Template: notify.TemplateDamageReport,
			ToEmail:  report.CustomerEmail,
			ToName:   report.CustomerName,
			Data: map[string]any{
				"reportId":            report.ID,
				"itemName":            report.ItemName,
				"bookingId":           report.BookingID,
				"severity":            string(report.Severity),
				"description":         report.Description,
				"estimatedRepairCost": report.EstimatedRepairCost.StringFixed(2),
			},
		})
		if outcome.NotificationErr != nil {
			logger.Warn("Damage report email not sent", "reportID", report.ID, "error", outcome.NotificationErr)
		}
	}

	logger.ExitMethod("damageService.ReportDamage", "reportID", report.ID, "item", report.ItemID)
	return outcome, nil
}

func (s *damageService) GetReport(ctx context.Context, id string) (*domain.DamageReport, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *damageService) ListReports(ctx context.Context, status domain.DamageStatus) ([]domain.DamageReport, error) {
	if status == "" {
		return s.reports.List(ctx)
	}
	return s.reports.ListByStatus(ctx, status)
}

// UpdateStatus moves a report through its repair workflow. Reaching
// repaired puts the unit back in service; reaching written-off records the
// loss. The ledger step runs before the report is saved and is keyed by the
// report id, so a retry after a failed save does not apply it twice.
func (s *damageService) UpdateStatus(ctx context.Context, id string, to domain.DamageStatus, repairCost *decimal.Decimal) (*domain.DamageReport, error) {
	logger.EnterMethod("damageService.UpdateStatus", "reportID", id, "to", to)

	if repairCost != nil && repairCost.IsNegative() {
		return nil, fmt.Errorf("%w: repair cost cannot be negative", domain.ErrInvalidInput)
	}

	var report *domain.DamageReport
	err := retryOnConflict("damage report "+id, func() error {
		r, err := s.reports.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(to) {
			metrics.DamageReportTransitions.WithLabelValues(string(to), "rejected").Inc()
			return fmt.Errorf("%w: damage report %s cannot move from %s to %s", domain.ErrInvalidTransition, id, r.Status, to)
		}

		now := s.now()
		switch to {
		case domain.DamageStatusRepaired:
			if _, err := s.ledger.MarkRepairedOrRestored(ctx, r.ItemID, damageOpID(id), opID(id, "restore")); err != nil {
				metrics.DamageReportTransitions.WithLabelValues(string(to), "failed").Inc()
				return err
			}
			r.RepairedAt = &now
			if repairCost != nil {
				cost := *repairCost
				r.RepairCost = &cost
			}
		case domain.DamageStatusWrittenOff:
			if _, err := s.ledger.WriteOff(ctx, r.ItemID, opID(id, string(domain.OpWriteOff))); err != nil {
				metrics.DamageReportTransitions.WithLabelValues(string(to), "failed").Inc()
				return err
			}
		}

		if err := r.Transition(to, now); err != nil {
			return err
		}
		if err := s.reports.Update(ctx, r); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("damageService.UpdateStatus", err, "reportID", id, "to", to)
		return nil, err
	}

	metrics.DamageReportTransitions.WithLabelValues(string(to), "applied").Inc()
	logger.ExitMethod("damageService.UpdateStatus", "reportID", id, "status", report.Status)
	return report, nil
}

// DeleteReport removes a report. A report still in the damaged state
// returns its unit to service first; in any other state only the report is
// removed.
func (s *damageService) DeleteReport(ctx context.Context, id string) error {
	logger.EnterMethod("damageService.DeleteReport", "reportID", id)

	err := retryOnConflict("damage report "+id, func() error {
		r, err := s.reports.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r.Status == domain.DamageStatusDamaged {
			if _, err := s.ledger.MarkRepairedOrRestored(ctx, r.ItemID, damageOpID(id), opID(id, "restore")); err != nil {
				return err
			}
		}
		return s.reports.Delete(ctx, r)
	})
	if err != nil {
		metrics.DamageReportTransitions.WithLabelValues("delete", "failed").Inc()
		logger.ExitMethodWithError("damageService.DeleteReport", err, "reportID", id)
		return err
	}

	metrics.DamageReportTransitions.WithLabelValues("delete", "applied").Inc()
	logger.ExitMethod("damageService.DeleteReport", "reportID", id)
	return nil
}
