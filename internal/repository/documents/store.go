package documents

import (
	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/repository"
)

// Store groups the repositories that share one document store.
type Store struct {
	docs docstore.Store
	repository.ItemRepository
	repository.BookingRepository
	repository.DamageReportRepository
}

func NewStore(docs docstore.Store) *Store {
	return &Store{
		docs:                   docs,
		ItemRepository:         NewItemRepository(docs),
		BookingRepository:      NewBookingRepository(docs),
		DamageReportRepository: NewDamageReportRepository(docs),
	}
}

// Documents returns the underlying document store.
func (s *Store) Documents() docstore.Store {
	return s.docs
}
