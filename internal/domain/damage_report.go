package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type DamageStatus string

const (
	DamageStatusDamaged     DamageStatus = "damaged"
	DamageStatusUnderRepair DamageStatus = "under-repair"
	DamageStatusRepaired    DamageStatus = "repaired"
	DamageStatusWrittenOff  DamageStatus = "written-off"
)

var damageTransitions = map[DamageStatus][]DamageStatus{
	DamageStatusDamaged:     {DamageStatusUnderRepair, DamageStatusWrittenOff},
	DamageStatusUnderRepair: {DamageStatusRepaired, DamageStatusDamaged},
}

func (s DamageStatus) CanTransitionTo(next DamageStatus) bool {
	for _, allowed := range damageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DamageStatus) IsTerminal() bool {
	return s == DamageStatusRepaired || s == DamageStatusWrittenOff
}

type DamageReport struct {
	ID                  string           `json:"id"`
	ItemID              string           `json:"itemId"`
	ItemName            string           `json:"itemName"`
	BookingID           string           `json:"bookingId,omitempty"`
	CustomerName        string           `json:"customerName,omitempty"`
	CustomerEmail       string           `json:"customerEmail,omitempty"`
	Description         string           `json:"description,omitempty"`
	Severity            Severity         `json:"severity"`
	Status              DamageStatus     `json:"status"`
	EstimatedRepairCost decimal.Decimal  `json:"estimatedRepairCost"`
	RepairCost          *decimal.Decimal `json:"repairCost,omitempty"`
	Photos              []MediaAsset     `json:"photos,omitempty"`
	ReportedAt          time.Time        `json:"reportedAt"`
	RepairedAt          *time.Time       `json:"repairedAt,omitempty"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	Version             int64            `json:"-"`
}

// Transition moves the report to next, returning ErrInvalidTransition when
// the state machine does not allow it.
func (r *DamageReport) Transition(next DamageStatus, at time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: damage report %s cannot move from %s to %s", ErrInvalidTransition, r.ID, r.Status, next)
	}
	r.Status = next
	r.UpdatedAt = at
	return nil
}
