package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/service"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPaymentService_RecordPaymentAndRefund(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "100", domain.BookingLine{ItemID: "cam", Quantity: 1})
	svc := service.NewPaymentService(store.BookingRepository, new(MockGateway))

	b, err := svc.RecordPayment(ctx, "bk-1", service.PaymentRequest{Amount: money("40"), Method: "bank_transfer", Reference: "TX-1"})
	require.NoError(t, err)
	assert.True(t, money("40").Equal(b.PaymentDetails.AmountPaid))
	assert.Equal(t, domain.PaymentStatusPartial, b.PaymentStatus)

	t.Run("Same reference is recorded once", func(t *testing.T) {
		b, err := svc.RecordPayment(ctx, "bk-1", service.PaymentRequest{Amount: money("40"), Method: "bank_transfer", Reference: "TX-1"})
		assert.ErrorIs(t, err, domain.ErrDuplicateOperation)
		assert.True(t, domain.IsSuccess(err))
		require.NotNil(t, b)
		assert.True(t, money("40").Equal(b.PaymentDetails.AmountPaid))
		assert.Len(t, b.PaymentDetails.PaymentHistory, 1)
	})

	t.Run("Overpayment is clamped to the total", func(t *testing.T) {
		b, err := svc.RecordPayment(ctx, "bk-1", service.PaymentRequest{Amount: money("80"), Method: "cash"})
		require.NoError(t, err)
		assert.True(t, money("100").Equal(b.PaymentDetails.AmountPaid))
		assert.Equal(t, domain.PaymentStatusCompleted, b.PaymentStatus)
	})

	t.Run("Refund below zero is clamped", func(t *testing.T) {
		b, err := svc.RecordRefund(ctx, "bk-1", service.PaymentRequest{Amount: money("150"), Note: "cancelled"})
		require.NoError(t, err)
		assert.True(t, b.PaymentDetails.AmountPaid.IsZero())
		assert.Equal(t, domain.PaymentStatusNone, b.PaymentStatus)

		last := b.PaymentDetails.PaymentHistory[len(b.PaymentDetails.PaymentHistory)-1]
		assert.True(t, money("-150").Equal(last.Amount))
		assert.Equal(t, "refund", last.Method)
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, "bk-1", service.PaymentRequest{Amount: money("0"), Method: "cash"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.RecordPayment(ctx, "bk-1", service.PaymentRequest{Amount: money("5")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.RecordPayment(ctx, "missing", service.PaymentRequest{Amount: money("5"), Method: "cash"})
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestPaymentService_CapturePayPal(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "250", domain.BookingLine{ItemID: "cam", Quantity: 1})
	gateway := new(MockGateway)
	svc := service.NewPaymentService(store.BookingRepository, gateway)

	gateway.On("GetCapture", ctx, "ORDER-1").Return(&domain.PaymentCapture{
		OrderID: "ORDER-1", TransactionID: "CAP-1", Status: "COMPLETED", Amount: money("250"), Currency: "USD", PayerEmail: "ana@example.com",
	}, nil)
	gateway.On("GetCapture", ctx, "ORDER-2").Return(&domain.PaymentCapture{OrderID: "ORDER-2", Status: "PAYER_ACTION_REQUIRED"}, nil)

	b, err := svc.CapturePayPal(ctx, "bk-1", "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, b.PaymentStatus)
	assert.Equal(t, "CAP-1", b.PaymentDetails.PaymentHistory[0].Reference)
	assert.Equal(t, "paypal", b.PaymentDetails.PaymentHistory[0].Method)

	_, err = svc.CapturePayPal(ctx, "bk-1", "ORDER-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateOperation)

	_, err = svc.CapturePayPal(ctx, "bk-1", "ORDER-2")
	assert.ErrorIs(t, err, domain.ErrPaymentIncomplete)

	_, err = svc.CapturePayPal(ctx, "nope", "ORDER-1")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestPaymentService_CapturePayPal_NotConfigured(t *testing.T) {
	store := newStore()
	seedBooking(t, store, "bk-1", "250", domain.BookingLine{ItemID: "cam", Quantity: 1})
	svc := service.NewPaymentService(store.BookingRepository, nil)

	_, err := svc.CapturePayPal(context.Background(), "bk-1", "ORDER-1")
	assert.ErrorIs(t, err, domain.ErrPaymentIncomplete)
}
