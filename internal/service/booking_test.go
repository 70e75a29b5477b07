package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/service"
)

func bookingRequest(lines ...domain.BookingLine) service.CreateBookingRequest {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return service.CreateBookingRequest{
		UserID:    "user-1",
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
		Items:     lines,
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedItem(t, store, "cam", "Cinema Camera", 3, "85.00")
	seedItem(t, store, "lens", "Zoom Lens", 5, "30.00")
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, newLedger(store), notify.LogNotifier{})

	t.Run("Reserves merged lines and prices the rental", func(t *testing.T) {
		req := bookingRequest(domain.BookingLine{ItemID: "cam", Quantity: 1}, domain.BookingLine{ItemID: "lens", Quantity: 2})
		req.Packages = []domain.BookingPackage{{ID: "pkg-1", Name: "Doc kit", Items: []domain.BookingLine{{ItemID: "cam", Quantity: 1}}}}

		b, err := svc.CreateBooking(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, domain.BookingStatusPending, b.Status)
		assert.Equal(t, domain.PaymentStatusNone, b.PaymentStatus)
		// 3 days: cam 2 x 85 x 3 + lens 2 x 30 x 3
		assert.True(t, decimal.RequireFromString("690").Equal(b.TotalAmount), b.TotalAmount.String())
		assert.Equal(t, domain.Quantities{Total: 3, Available: 3, Reserved: 2}, quantities(t, store, "cam"))
		assert.Equal(t, domain.Quantities{Total: 5, Available: 5, Reserved: 2}, quantities(t, store, "lens"))

		saved, err := svc.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, saved.ID)
	})

	t.Run("Rolls back earlier reservations when a line fails", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, bookingRequest(
			domain.BookingLine{ItemID: "lens", Quantity: 1},
			domain.BookingLine{ItemID: "cam", Quantity: 2},
		))
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		assert.Equal(t, 2, quantities(t, store, "lens").Reserved)
		assert.Equal(t, 2, quantities(t, store, "cam").Reserved)
		all, err := svc.ListBookings(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Rejects an empty booking", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, bookingRequest())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Unknown item", func(t *testing.T) {
		_, err := svc.CreateBooking(ctx, bookingRequest(domain.BookingLine{ItemID: "ghost", Quantity: 1}))
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}

func TestBookingService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedItem(t, store, "cam", "Cinema Camera", 3, "85.00")
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, newLedger(store), notify.LogNotifier{})

	t.Run("Complete releases and returns", func(t *testing.T) {
		b, err := svc.CreateBooking(ctx, bookingRequest(domain.BookingLine{ItemID: "cam", Quantity: 2}))
		require.NoError(t, err)

		b, err = svc.TransitionBooking(ctx, b.ID, domain.BookingStatusActive)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusActive, b.Status)
		assert.Equal(t, 2, quantities(t, store, "cam").Reserved)

		b, err = svc.TransitionBooking(ctx, b.ID, domain.BookingStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, b.Status)
		assert.Equal(t, domain.Quantities{Total: 3, Available: 3, Reserved: 0}, quantities(t, store, "cam"))

		_, err = svc.TransitionBooking(ctx, b.ID, domain.BookingStatusCancelled)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Cancel releases", func(t *testing.T) {
		b, err := svc.CreateBooking(ctx, bookingRequest(domain.BookingLine{ItemID: "cam", Quantity: 3}))
		require.NoError(t, err)
		assert.Equal(t, 3, quantities(t, store, "cam").Reserved)

		b, err = svc.TransitionBooking(ctx, b.ID, domain.BookingStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)
		assert.Equal(t, 0, quantities(t, store, "cam").Reserved)
	})

	t.Run("Unknown booking", func(t *testing.T) {
		_, err := svc.TransitionBooking(ctx, "nope", domain.BookingStatusActive)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingService_InvalidTransitionSkipsLedger(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "100", domain.BookingLine{ItemID: "cam", Quantity: 1})
	l := new(MockLedger)
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, l, notify.LogNotifier{})

	_, err := svc.TransitionBooking(ctx, "bk-1", domain.BookingStatusCompleted)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	l.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	l.AssertNotCalled(t, "ReturnItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CancelPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "100",
		domain.BookingLine{ItemID: "cam", Quantity: 1},
		domain.BookingLine{ItemID: "lens", Quantity: 1},
	)
	l := new(MockLedger)
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, l, notify.LogNotifier{})

	l.On("Release", ctx, "cam", 1, "bk-1:release:cam").Return(&ledger.Result{ItemID: "cam"}, nil).Once()
	l.On("Release", ctx, "lens", 1, "bk-1:release:lens").Return(nil, domain.ErrConcurrentUpdateConflict).Once()

	_, err := svc.TransitionBooking(ctx, "bk-1", domain.BookingStatusCancelled)

	var batch *domain.BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{"cam"}, batch.Succeeded)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "lens", batch.Failed[0].ItemID)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdateConflict)
	assert.Equal(t, "Cancel booking could not be completed for every item. Updated: cam. Failed: lens.", domain.Message(err))

	b, err := store.BookingRepository.GetByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, b.Status)

	// retrying reuses the same operation ids
	l.On("Release", ctx, "cam", 1, "bk-1:release:cam").Return(&ledger.Result{ItemID: "cam", Duplicate: true}, nil).Once()
	l.On("Release", ctx, "lens", 1, "bk-1:release:lens").Return(&ledger.Result{ItemID: "lens"}, nil).Once()

	b, err = svc.TransitionBooking(ctx, "bk-1", domain.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	l.AssertExpectations(t)
}

func TestBookingService_NotifiesCustomer(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedItem(t, store, "cam", "Cinema Camera", 3, "85.00")
	n := new(MockNotifier)
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, newLedger(store), n)

	n.On("Send", ctx, mock.MatchedBy(func(m notify.Message) bool {
		return m.Template == notify.TemplateBookingStatus && m.ToEmail == "ana@example.com" && m.Data["status"] == "pending"
	})).Return(errors.New("smtp down"))

	req := bookingRequest(domain.BookingLine{ItemID: "cam", Quantity: 1})
	req.CustomerEmail = "ana@example.com"
	b, err := svc.CreateBooking(ctx, req)

	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	n.AssertExpectations(t)
}

func TestBookingService_ListBookings(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	seedBooking(t, store, "bk-1", "10", domain.BookingLine{ItemID: "cam", Quantity: 1})
	other := seedBooking(t, store, "bk-2", "10", domain.BookingLine{ItemID: "cam", Quantity: 1})
	other.UserID = "user-2"
	other.Status = domain.BookingStatusActive
	require.NoError(t, store.BookingRepository.Update(ctx, other))
	svc := service.NewBookingService(store.BookingRepository, store.ItemRepository, new(MockLedger), notify.LogNotifier{})

	mine, err := svc.ListBookings(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "bk-1", mine[0].ID)

	active, err := svc.ListBookings(ctx, "", domain.BookingStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "bk-2", active[0].ID)

	none, err := svc.ListBookings(ctx, "user-1", domain.BookingStatusActive)
	require.NoError(t, err)
	assert.Empty(t, none)
}
