package domain_test

import (
	"errors"
	"testing"
	"time"

	"gearrent-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to domain.BookingStatus
		allowed  bool
	}{
		{domain.BookingStatusPending, domain.BookingStatusActive, true},
		{domain.BookingStatusPending, domain.BookingStatusCancelled, true},
		{domain.BookingStatusActive, domain.BookingStatusCancelled, true},
		{domain.BookingStatusActive, domain.BookingStatusCompleted, true},
		{domain.BookingStatusPending, domain.BookingStatusCompleted, false},
		{domain.BookingStatusCompleted, domain.BookingStatusPending, false},
		{domain.BookingStatusCancelled, domain.BookingStatusActive, false},
		{domain.BookingStatusActive, domain.BookingStatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestBooking_Lines(t *testing.T) {
	b := &domain.Booking{
		Items: []domain.BookingLine{{ItemID: "cam", Quantity: 1}, {ItemID: "lens", Quantity: 2}},
		Packages: []domain.BookingPackage{{
			ID:    "kit",
			Items: []domain.BookingLine{{ItemID: "lens", Quantity: 1}, {ItemID: "light", Quantity: 2}},
		}},
	}

	assert.Equal(t, []domain.BookingLine{
		{ItemID: "cam", Quantity: 1},
		{ItemID: "lens", Quantity: 3},
		{ItemID: "light", Quantity: 2},
	}, b.Lines())
}

func TestBooking_Validate(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	b := &domain.Booking{UserID: "u1", StartDate: start, EndDate: start.Add(48 * time.Hour)}
	assert.ErrorIs(t, b.Validate(), domain.ErrInvalidInput)

	b.Items = []domain.BookingLine{{ItemID: "cam", Quantity: 1}}
	assert.NoError(t, b.Validate())
	assert.Equal(t, 3, b.Days())

	b.EndDate = start.Add(-time.Hour)
	assert.ErrorIs(t, b.Validate(), domain.ErrInvalidInput)
}

func TestBooking_AddPaymentEntry(t *testing.T) {
	b := &domain.Booking{TotalAmount: decimal.NewFromInt(100), PaymentStatus: domain.PaymentStatusNone}

	t.Run("Partial Then Complete", func(t *testing.T) {
		require.NoError(t, b.AddPaymentEntry(domain.PaymentEntry{Amount: decimal.NewFromInt(40), Reference: "p1"}))
		assert.Equal(t, domain.PaymentStatusPartial, b.PaymentStatus)
		assert.True(t, decimal.NewFromInt(40).Equal(b.PaymentDetails.AmountPaid))

		require.NoError(t, b.AddPaymentEntry(domain.PaymentEntry{Amount: decimal.NewFromInt(80), Reference: "p2"}))
		assert.Equal(t, domain.PaymentStatusCompleted, b.PaymentStatus)
		assert.True(t, decimal.NewFromInt(100).Equal(b.PaymentDetails.AmountPaid), "clamped to total")
	})

	t.Run("Duplicate Reference", func(t *testing.T) {
		err := b.AddPaymentEntry(domain.PaymentEntry{Amount: decimal.NewFromInt(10), Reference: "p1"})
		assert.True(t, errors.Is(err, domain.ErrDuplicateOperation))
		assert.Len(t, b.PaymentDetails.PaymentHistory, 2)
	})

	t.Run("Refund Clamps At Zero", func(t *testing.T) {
		require.NoError(t, b.AddPaymentEntry(domain.PaymentEntry{Amount: decimal.NewFromInt(-150), Reference: "r1"}))
		assert.True(t, b.PaymentDetails.AmountPaid.IsZero())
		assert.Equal(t, domain.PaymentStatusNone, b.PaymentStatus)
		assert.Len(t, b.PaymentDetails.PaymentHistory, 3)
	})
}

func TestDamageStatus_Transitions(t *testing.T) {
	r := &domain.DamageReport{ID: "r1", Status: domain.DamageStatusDamaged}
	now := time.Now()

	require.NoError(t, r.Transition(domain.DamageStatusUnderRepair, now))
	require.NoError(t, r.Transition(domain.DamageStatusDamaged, now))
	require.NoError(t, r.Transition(domain.DamageStatusWrittenOff, now))

	err := r.Transition(domain.DamageStatusRepaired, now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.DamageStatusWrittenOff, r.Status)

	assert.False(t, domain.DamageStatusDamaged.CanTransitionTo(domain.DamageStatusRepaired))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", domain.Message(nil))
	assert.Contains(t, domain.Message(domain.ErrInsufficientStock), "Not enough units")

	batch := &domain.BatchError{
		Operation: "cancel booking",
		Succeeded: []string{"cam"},
		Failed:    []domain.ItemFailure{{ItemID: "lens", Err: domain.ErrIndeterminate}},
	}
	assert.True(t, errors.Is(batch, domain.ErrIndeterminate))
	assert.Equal(t, "Cancel booking could not be completed for every item. Updated: cam. Failed: lens.", domain.Message(batch))
}
