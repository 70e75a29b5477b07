package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/repository/documents"
)

func newStore() *documents.Store {
	return documents.NewStore(docstore.NewMemoryStore())
}

func newLedger(store *documents.Store) *ledger.Ledger {
	return ledger.New(store.ItemRepository, ledger.Options{MaxRetries: 3})
}

func seedItem(t *testing.T, store *documents.Store, id, name string, total int, rate string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.ItemRepository.Create(context.Background(), &domain.InventoryItem{
		ID:                id,
		Name:              name,
		Category:          domain.CategoryCamera,
		DailyRate:         decimal.RequireFromString(rate),
		TotalQuantity:     total,
		AvailableQuantity: total,
		CreatedAt:         now,
		UpdatedAt:         now,
	}))
}

func quantities(t *testing.T, store *documents.Store, id string) domain.Quantities {
	t.Helper()
	item, err := store.ItemRepository.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item.Quantities()
}

func seedBooking(t *testing.T, store *documents.Store, id string, total string, lines ...domain.BookingLine) *domain.Booking {
	t.Helper()
	now := time.Now()
	b := &domain.Booking{
		ID:             id,
		UserID:         "user-1",
		Status:         domain.BookingStatusPending,
		StartDate:      now,
		EndDate:        now.Add(24 * time.Hour),
		Items:          lines,
		TotalAmount:    decimal.RequireFromString(total),
		PaymentStatus:  domain.PaymentStatusNone,
		PaymentDetails: domain.PaymentDetails{AmountPaid: decimal.Zero},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.BookingRepository.Create(context.Background(), b))
	return b
}
