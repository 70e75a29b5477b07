// Package ledger owns every mutation of the inventory quantity triple.
//
// Each operation is a single compare-and-swap on one item document. The
// operation id supplied by the caller is stored on the item in the same
// write, so repeating a request is a no-op that returns the earlier result.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/repository"
)

// Options tunes retry and timeout behaviour.
type Options struct {
	// MaxRetries is the number of read-compute-write attempts before
	// giving up with ErrConcurrentUpdateConflict.
	MaxRetries int
	// CallTimeout bounds each individual store call.
	CallTimeout time.Duration
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{MaxRetries: 5, CallTimeout: 5 * time.Second, Now: time.Now}
}

// Result describes a committed (or previously committed) operation.
type Result struct {
	ItemID      string               `json:"itemId"`
	ItemName    string               `json:"itemName"`
	OperationID string               `json:"operationId,omitempty"`
	Kind        domain.OperationKind `json:"kind"`
	Quantity    int                  `json:"quantity"`
	Before      domain.Quantities    `json:"before"`
	After       domain.Quantities    `json:"after"`
	Duplicate   bool                 `json:"duplicate"`
	AppliedAt   time.Time            `json:"appliedAt"`
}

type Ledger struct {
	items  repository.ItemRepository
	opts   Options
	tracer trace.Tracer
	*observers
}

func New(items repository.ItemRepository, opts Options) *Ledger {
	def := DefaultOptions()
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Ledger{
		items:     items,
		opts:      opts,
		tracer:    otel.Tracer("gearrent-backend/internal/ledger"),
		observers: newObservers(),
	}
}

// Reserve holds qty free units for a booking.
func (l *Ledger) Reserve(ctx context.Context, ref string, qty int, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpReserve, ref, qty, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities().Reserve(qty)
	})
}

// Release drops up to qty reserved units.
func (l *Ledger) Release(ctx context.Context, ref string, qty int, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpRelease, ref, qty, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities().Release(qty)
	})
}

// MarkDamaged takes one free unit out of service.
func (l *Ledger) MarkDamaged(ctx context.Context, ref string, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpMarkDamaged, ref, 1, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities().MarkDamaged()
	})
}

// MarkRepairedOrRestored undoes the MarkDamaged recorded under damageOpID,
// either because the unit was repaired or because its damage report was
// withdrawn. The recorded change is reverted exactly; when it is no longer
// on the item one unit is added back.
func (l *Ledger) MarkRepairedOrRestored(ctx context.Context, ref, damageOpID, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpRestore, ref, 1, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		q := item.Quantities()
		if prev, ok := item.AppliedOps[damageOpID]; ok && damageOpID != "" {
			if prev.Kind != domain.OpMarkDamaged {
				return q, fmt.Errorf("%w: %s is a %s, not a damage", domain.ErrInvalidInput, damageOpID, prev.Kind)
			}
			if prev.Delta != (domain.Quantities{}) {
				return q.Undo(prev.Delta)
			}
		}
		return q.Restore()
	})
}

// WriteOff records that a damaged unit will not come back. Quantities are
// unchanged because MarkDamaged already removed the unit.
func (l *Ledger) WriteOff(ctx context.Context, ref string, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpWriteOff, ref, 0, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities(), nil
	})
}

// ReturnItems puts qty units back on the shelf after a rental ends.
func (l *Ledger) ReturnItems(ctx context.Context, ref string, qty int, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpReturn, ref, qty, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities().Return(qty)
	})
}

// AdjustStock adds (delta > 0) or retires (delta < 0) healthy units.
func (l *Ledger) AdjustStock(ctx context.Context, ref string, delta int, opID string) (*Result, error) {
	return l.apply(ctx, domain.OpAdjustStock, ref, delta, opID, func(item *domain.InventoryItem) (domain.Quantities, error) {
		return item.Quantities().Adjust(delta)
	})
}

// PruneOperations forgets operation ids applied before cutoff unless keep
// reports them as still needed. A request repeated after its id was pruned
// is applied again.
func (l *Ledger) PruneOperations(ctx context.Context, ref string, cutoff time.Time, keep func(opID string) bool) (int, error) {
	removed := 0
	_, err := l.casLoop(ctx, "pruneOperations", ref, func(item *domain.InventoryItem) (bool, error) {
		removed = item.PruneOperations(cutoff, keep)
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (l *Ledger) apply(
	ctx context.Context,
	kind domain.OperationKind,
	ref string,
	qty int,
	opID string,
	compute func(*domain.InventoryItem) (domain.Quantities, error),
) (*Result, error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+string(kind), trace.WithAttributes(
		attribute.String("ledger.item_ref", ref),
		attribute.String("ledger.operation_id", opID),
		attribute.Int("ledger.quantity", qty),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.LedgerDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	var res *Result
	_, err := l.casLoop(ctx, string(kind), ref, func(item *domain.InventoryItem) (bool, error) {
		res = &Result{ItemID: item.ID, ItemName: item.Name, OperationID: opID, Kind: kind, Quantity: qty}
		if prev, ok := item.AppliedOps[opID]; ok && opID != "" {
			res.Duplicate = true
			res.Kind = prev.Kind
			res.Quantity = prev.Quantity
			res.Before = prev.Result
			res.After = prev.Result
			res.AppliedAt = prev.AppliedAt
			return false, nil
		}

		before := item.Quantities()
		after, err := compute(item)
		if err != nil {
			return false, fmt.Errorf("%s %s: %w", kind, item.ID, err)
		}
		if err := after.Validate(); err != nil {
			return false, fmt.Errorf("%s %s: %w", kind, item.ID, err)
		}

		now := l.opts.Now()
		item.SetQuantities(after)
		item.UpdatedAt = now
		item.RecordOperation(opID, kind, qty, before, now)
		res.Before, res.After, res.AppliedAt = before, after, now
		return true, nil
	})

	log := logger.WithOperation(string(kind), opID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.LedgerOperations.WithLabelValues(string(kind), outcome(err)).Inc()
		log.Warn("Ledger operation failed", "item", ref, "quantity", qty, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("ledger.duplicate", res.Duplicate))
	if res.Duplicate {
		metrics.LedgerOperations.WithLabelValues(string(kind), "duplicate").Inc()
		log.Info("Ledger operation already applied", "item", res.ItemID)
		return res, nil
	}

	metrics.LedgerOperations.WithLabelValues(string(kind), "applied").Inc()
	log.Info("Ledger operation applied",
		"item", res.ItemID,
		"quantity", qty,
		"total", res.After.Total,
		"available", res.After.Available,
		"reserved", res.After.Reserved,
	)
	l.notify(*res)
	return res, nil
}

// casLoop reads the item, lets step mutate it and writes it back if the
// stored version has not moved. step returns false to skip the write.
func (l *Ledger) casLoop(ctx context.Context, kind, ref string, step func(*domain.InventoryItem) (bool, error)) (*domain.InventoryItem, error) {
	for attempt := 1; attempt <= l.opts.MaxRetries; attempt++ {
		item, err := l.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		write, err := step(item)
		if err != nil || !write {
			return item, err
		}

		err = l.store(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("%w: %s on %s: %w", domain.ErrIndeterminate, kind, item.ID, err)
		}
		metrics.LedgerConflicts.WithLabelValues(kind).Inc()
		logger.Debug("Ledger version conflict, retrying", "operation", kind, "item", item.ID, "attempt", attempt)
	}
	return nil, fmt.Errorf("%w: %s on %s after %d attempts", domain.ErrConcurrentUpdateConflict, kind, ref, l.opts.MaxRetries)
}

// load resolves ref by exact id, then by case-insensitive name.
func (l *Ledger) load(ctx context.Context, ref string) (*domain.InventoryItem, error) {
	callCtx, cancel := l.callContext(ctx)
	defer cancel()

	item, err := l.items.GetByID(callCtx, ref)
	if errors.Is(err, domain.ErrItemNotFound) {
		item, err = l.items.GetByName(callCtx, ref)
	}
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrStoreUnavailable, ref, err)
	}
	return item, nil
}

func (l *Ledger) store(ctx context.Context, item *domain.InventoryItem) error {
	callCtx, cancel := l.callContext(ctx)
	defer cancel()
	return l.items.Update(callCtx, item)
}

func (l *Ledger) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, l.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvariantViolation):
		return "rejected"
	case errors.Is(err, domain.ErrConcurrentUpdateConflict):
		return "conflict"
	case errors.Is(err, domain.ErrIndeterminate):
		return "indeterminate"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	}
	return "error"
}
