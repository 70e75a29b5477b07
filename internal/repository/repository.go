package repository

import (
	"context"

	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/domain"
)

// ErrVersionConflict is returned by Update and Delete when the entity was
// changed since it was read.
var ErrVersionConflict = docstore.ErrVersionConflict

// ItemRepository persists inventory items. Update and Delete compare the
// entity's Version with the stored one.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	GetByName(ctx context.Context, name string) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	ListByCategory(ctx context.Context, category domain.Category) ([]domain.InventoryItem, error)
	Update(ctx context.Context, item *domain.InventoryItem) error
	Delete(ctx context.Context, item *domain.InventoryItem) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

type DamageReportRepository interface {
	Create(ctx context.Context, report *domain.DamageReport) error
	GetByID(ctx context.Context, id string) (*domain.DamageReport, error)
	List(ctx context.Context) ([]domain.DamageReport, error)
	ListByStatus(ctx context.Context, status domain.DamageStatus) ([]domain.DamageReport, error)
	ListByItem(ctx context.Context, itemID string) ([]domain.DamageReport, error)
	Update(ctx context.Context, report *domain.DamageReport) error
	Delete(ctx context.Context, report *domain.DamageReport) error
}
