package jobs

import (
	"context"
	"fmt"
	"strings"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
)

// Violation is an item whose stored quantities break the invariant
type Violation struct {
	ItemID     string
	Quantities domain.Quantities
	Err        error
}

// Drift compares an item's reservedQuantity with what open bookings hold
type Drift struct {
	ItemID   string
	Reserved int
	Booked   int
}

func (d Drift) Delta() int {
	return d.Reserved - d.Booked
}

// Audit checks 0 <= reserved <= available <= total and total >= 1 on every
// item and refreshes the quantity gauges. Nothing is written back.
func (jr *JobRunner) Audit(ctx context.Context) ([]Violation, error) {
	items, err := jr.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	var violations []Violation
	for _, item := range items {
		q := item.Quantities()
		metrics.SetItemQuantities(item.ID, q)
		if err := q.Validate(); err != nil {
			logger.Error("Inventory invariant violated", "item", item.ID, "total", q.Total, "available", q.Available, "reserved", q.Reserved)
			violations = append(violations, Violation{ItemID: item.ID, Quantities: q, Err: err})
		}
	}

	metrics.InvariantViolations.Set(float64(len(violations)))
	logger.Info("Inventory audit finished", "items", len(items), "violations", len(violations))
	return violations, nil
}

// Reconcile sums the lines of pending and active bookings per item and
// reports where reservedQuantity disagrees. It only reports; fixing drift
// is an admin decision.
func (jr *JobRunner) Reconcile(ctx context.Context) ([]Drift, error) {
	items, err := jr.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	byName := make(map[string]string, len(items))
	for _, item := range items {
		byName[strings.ToLower(item.Name)] = item.ID
	}

	booked := make(map[string]int)
	for _, status := range []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusActive} {
		bookings, err := jr.bookings.ListByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("listing %s bookings: %w", status, err)
		}
		for _, b := range bookings {
			for _, l := range b.Lines() {
				id := l.ItemID
				if alias, ok := byName[strings.ToLower(id)]; ok {
					id = alias
				}
				booked[id] += l.Quantity
			}
		}
	}

	var drifts []Drift
	for _, item := range items {
		d := Drift{ItemID: item.ID, Reserved: item.ReservedQuantity, Booked: booked[item.ID]}
		metrics.ReservationDrift.WithLabelValues(item.ID).Set(float64(d.Delta()))
		if d.Delta() != 0 {
			logger.Warn("Reservation drift", "item", item.ID, "reserved", d.Reserved, "booked", d.Booked)
			drifts = append(drifts, d)
		}
	}

	logger.Info("Reservation reconciliation finished", "items", len(items), "drifted", len(drifts))
	return drifts, nil
}

// Prune drops applied operation ids older than the configured retention.
// Ids belonging to a booking or damage report that can still move, and so
// still retry or compensate its ledger steps, are kept whatever their age.
func (jr *JobRunner) Prune(ctx context.Context) (int, error) {
	open, err := jr.openSagas(ctx)
	if err != nil {
		return 0, err
	}
	items, err := jr.items.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing items: %w", err)
	}

	cutoff := jr.now().Add(-jr.config.Ledger.Retention)
	keep := func(opID string) bool {
		owner, _, _ := strings.Cut(opID, ":")
		return open[owner]
	}
	total := 0
	var failed []string
	for _, item := range items {
		n, err := jr.ledger.PruneOperations(ctx, item.ID, cutoff, keep)
		if err != nil {
			logger.Warn("Failed to prune operations", "item", item.ID, "error", err)
			failed = append(failed, item.ID)
			continue
		}
		total += n
	}

	logger.Info("Pruned applied operations", "removed", total, "cutoff", cutoff, "open", len(open))
	if len(failed) > 0 {
		return total, fmt.Errorf("pruning failed for %d item(s): %s", len(failed), strings.Join(failed, ", "))
	}
	return total, nil
}

// openSagas collects the ids of pending and active bookings and of damage
// reports not yet repaired or written off.
func (jr *JobRunner) openSagas(ctx context.Context) (map[string]bool, error) {
	open := make(map[string]bool)
	for _, status := range []domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusActive} {
		bookings, err := jr.bookings.ListByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("listing %s bookings: %w", status, err)
		}
		for _, b := range bookings {
			open[b.ID] = true
		}
	}
	for _, status := range []domain.DamageStatus{domain.DamageStatusDamaged, domain.DamageStatusUnderRepair} {
		reports, err := jr.reports.ListByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("listing %s damage reports: %w", status, err)
		}
		for _, r := range reports {
			open[r.ID] = true
		}
	}
	return open, nil
}
