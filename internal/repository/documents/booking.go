package documents

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/repository"
)

type bookingRepository struct {
	store docstore.Store
}

func NewBookingRepository(store docstore.Store) repository.BookingRepository {
	return &bookingRepository{store: store}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	fields, err := toFields(b)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionBookings, b.ID, fields, 0)
	if err != nil {
		return err
	}
	b.Version = v
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionBookings, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeBooking(doc)
}

func (r *bookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return r.query(ctx)
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	return r.query(ctx, docstore.Filter{Field: "userId", Value: userID})
}

func (r *bookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.query(ctx, docstore.Filter{Field: "status", Value: string(status)})
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	fields, err := toFields(b)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionBookings, b.ID, fields, b.Version)
	if err != nil {
		return err
	}
	b.Version = v
	return nil
}

func (r *bookingRepository) query(ctx context.Context, filters ...docstore.Filter) ([]domain.Booking, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionBookings, filters...)
	if err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := decodeBooking(doc)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func decodeBooking(doc *docstore.Document) (*domain.Booking, error) {
	b := &domain.Booking{}
	if err := fromDocument(doc, b); err != nil {
		return nil, err
	}
	b.ID = doc.ID
	b.Version = doc.Version
	return b, nil
}
