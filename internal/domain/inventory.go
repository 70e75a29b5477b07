package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryCamera    Category = "camera"
	CategoryLens      Category = "lens"
	CategoryLighting  Category = "lighting"
	CategoryAudio     Category = "audio"
	CategoryGrip      Category = "grip"
	CategoryPower     Category = "power"
	CategoryDrone     Category = "drone"
	CategoryAccessory Category = "accessory"
)

var categories = map[Category]bool{
	CategoryCamera:    true,
	CategoryLens:      true,
	CategoryLighting:  true,
	CategoryAudio:     true,
	CategoryGrip:      true,
	CategoryPower:     true,
	CategoryDrone:     true,
	CategoryAccessory: true,
}

func (c Category) Valid() bool {
	return categories[c]
}

type OperationKind string

const (
	OpReserve     OperationKind = "reserve"
	OpRelease     OperationKind = "release"
	OpMarkDamaged OperationKind = "markDamaged"
	OpRestore     OperationKind = "markRepairedOrRestored"
	OpWriteOff    OperationKind = "writeOff"
	OpReturn      OperationKind = "returnItems"
	OpAdjustStock OperationKind = "adjustStock"
)

// Quantities is the per-item triple owned by the ledger.
type Quantities struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
}

// Free is the number of units that can still be reserved.
func (q Quantities) Free() int {
	if f := q.Available - q.Reserved; f > 0 {
		return f
	}
	return 0
}

// Validate checks 0 <= reserved <= available <= total and total >= 1.
func (q Quantities) Validate() error {
	if q.Total < 1 || q.Available < 0 || q.Reserved < 0 || q.Reserved > q.Available || q.Available > q.Total {
		return fmt.Errorf("%w: total=%d available=%d reserved=%d", ErrInvariantViolation, q.Total, q.Available, q.Reserved)
	}
	return nil
}

func (q Quantities) Reserve(n int) (Quantities, error) {
	if n <= 0 {
		return q, fmt.Errorf("%w: reserve %d", ErrInvalidQuantity, n)
	}
	if q.Free() < n {
		return q, fmt.Errorf("%w: requested %d, %d free", ErrInsufficientStock, n, q.Free())
	}
	q.Reserved += n
	return q, nil
}

func (q Quantities) Release(n int) (Quantities, error) {
	if n < 0 {
		return q, fmt.Errorf("%w: release %d", ErrInvalidQuantity, n)
	}
	q.Reserved = max(0, q.Reserved-n)
	return q, nil
}

// MarkDamaged takes one free unit out of service. Total never drops below 1.
func (q Quantities) MarkDamaged() (Quantities, error) {
	if q.Free() < 1 {
		return q, fmt.Errorf("%w: no free unit to mark damaged", ErrInsufficientStock)
	}
	q.Total = max(1, q.Total-1)
	q.Available = max(0, q.Available-1)
	return q, nil
}

// Restore puts one unit back into service after repair or after a damage
// report is withdrawn, when the original change is no longer on record.
func (q Quantities) Restore() (Quantities, error) {
	q.Total++
	q.Available++
	return q, nil
}

// Undo reverts change, an earlier After minus Before. Available is capped
// at total so a return that landed in between cannot push it over.
func (q Quantities) Undo(change Quantities) (Quantities, error) {
	if change == (Quantities{}) {
		return q, fmt.Errorf("%w: nothing to undo", ErrInvalidQuantity)
	}
	q.Total -= change.Total
	q.Available = min(q.Total, q.Available-change.Available)
	q.Reserved = max(0, q.Reserved-change.Reserved)
	return q, nil
}

// Sub returns q minus o field by field.
func (q Quantities) Sub(o Quantities) Quantities {
	return Quantities{Total: q.Total - o.Total, Available: q.Available - o.Available, Reserved: q.Reserved - o.Reserved}
}

func (q Quantities) Return(n int) (Quantities, error) {
	if n < 0 {
		return q, fmt.Errorf("%w: return %d", ErrInvalidQuantity, n)
	}
	q.Available = min(q.Total, q.Available+n)
	return q, nil
}

// Adjust adds or removes healthy units from the fleet.
func (q Quantities) Adjust(delta int) (Quantities, error) {
	if delta == 0 {
		return q, fmt.Errorf("%w: adjust by 0", ErrInvalidQuantity)
	}
	if delta < 0 && q.Free() < -delta {
		return q, fmt.Errorf("%w: cannot remove %d units, %d free", ErrInsufficientStock, -delta, q.Free())
	}
	if q.Total+delta < 1 {
		return q, fmt.Errorf("%w: total would drop to %d", ErrInvalidQuantity, q.Total+delta)
	}
	q.Total += delta
	q.Available += delta
	return q, nil
}

// AppliedOperation records a ledger operation id that has been committed
// against an item, together with the quantities it produced and the change
// it made.
type AppliedOperation struct {
	Kind      OperationKind `json:"kind"`
	Quantity  int           `json:"quantity"`
	Result    Quantities    `json:"result"`
	Delta     Quantities    `json:"delta"`
	AppliedAt time.Time     `json:"appliedAt"`
}

type InventoryItem struct {
	ID                string                      `json:"id"`
	Name              string                      `json:"name"`
	Category          Category                    `json:"category"`
	Description       string                      `json:"description,omitempty"`
	DailyRate         decimal.Decimal             `json:"dailyRate"`
	ImageURL          string                      `json:"imageUrl,omitempty"`
	TotalQuantity     int                         `json:"totalQuantity"`
	AvailableQuantity int                         `json:"availableQuantity"`
	ReservedQuantity  int                         `json:"reservedQuantity"`
	Predefined        bool                        `json:"predefined"`
	AppliedOps        map[string]AppliedOperation `json:"appliedOps,omitempty"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
	Version           int64                       `json:"-"`
}

func (i *InventoryItem) Quantities() Quantities {
	return Quantities{Total: i.TotalQuantity, Available: i.AvailableQuantity, Reserved: i.ReservedQuantity}
}

func (i *InventoryItem) SetQuantities(q Quantities) {
	i.TotalQuantity = q.Total
	i.AvailableQuantity = q.Available
	i.ReservedQuantity = q.Reserved
}

// FreeForReservation is available minus reserved, never negative.
func (i *InventoryItem) FreeForReservation() int {
	return i.Quantities().Free()
}

// RecordOperation remembers opID so a repeat of the same request is a no-op.
// before is the triple the operation started from. An empty opID is not
// recorded.
func (i *InventoryItem) RecordOperation(opID string, kind OperationKind, qty int, before Quantities, at time.Time) {
	if opID == "" {
		return
	}
	if i.AppliedOps == nil {
		i.AppliedOps = make(map[string]AppliedOperation)
	}
	after := i.Quantities()
	i.AppliedOps[opID] = AppliedOperation{Kind: kind, Quantity: qty, Result: after, Delta: after.Sub(before), AppliedAt: at}
}

// PruneOperations drops operation records applied before cutoff, except
// those keep reports as still needed, and returns how many were removed.
// A nil keep drops every old record.
func (i *InventoryItem) PruneOperations(cutoff time.Time, keep func(opID string) bool) int {
	removed := 0
	for id, op := range i.AppliedOps {
		if op.AppliedAt.Before(cutoff) && (keep == nil || !keep(id)) {
			delete(i.AppliedOps, id)
			removed++
		}
	}
	return removed
}

func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if !i.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, i.Category)
	}
	if i.DailyRate.IsNegative() {
		return fmt.Errorf("%w: daily rate cannot be negative", ErrInvalidInput)
	}
	return i.Quantities().Validate()
}

// NameKey is the case-insensitive lookup key for item names.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
