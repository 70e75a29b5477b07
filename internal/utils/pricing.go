package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gearrent-backend/internal/domain"
)

// LineCost is the price of one booking line
type LineCost struct {
	ItemID    string          `json:"itemId"`
	Quantity  int             `json:"quantity"`
	DailyRate decimal.Decimal `json:"dailyRate"`
	Cost      decimal.Decimal `json:"cost"`
}

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days      int             `json:"days"`
	Lines     []LineCost      `json:"lines"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

// RentalDays counts calendar days between two dates, both ends included.
// Times of day are ignored.
func RentalDays(startDate, endDate time.Time) (int, error) {
	start := calendarDate(startDate)
	end := calendarDate(endDate)
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end date must be >= start date", domain.ErrInvalidInput)
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateRentalCost prices every line at its item's daily rate for the
// whole rental period
func CalculateRentalCost(startDate, endDate time.Time, lines []domain.BookingLine, rates map[string]decimal.Decimal) (RentalCostBreakdown, error) {
	days, err := RentalDays(startDate, endDate)
	if err != nil {
		return RentalCostBreakdown{}, err
	}

	breakdown := RentalCostBreakdown{Days: days, TotalCost: decimal.Zero}
	for _, l := range lines {
		rate, ok := rates[l.ItemID]
		if !ok {
			return RentalCostBreakdown{}, fmt.Errorf("%w: no rate for %s", domain.ErrItemNotFound, l.ItemID)
		}
		cost := rate.Mul(decimal.NewFromInt(int64(l.Quantity))).Mul(decimal.NewFromInt(int64(days)))
		breakdown.Lines = append(breakdown.Lines, LineCost{
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			DailyRate: rate,
			Cost:      cost,
		})
		breakdown.TotalCost = breakdown.TotalCost.Add(cost)
	}
	return breakdown, nil
}
