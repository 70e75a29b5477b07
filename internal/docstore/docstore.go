// Package docstore is the single authoritative document store. Documents
// are versioned so writers can compare-and-swap.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version conflict")
)

// AnyVersion skips the version check on Delete.
const AnyVersion int64 = -1

// Collections used by the application.
const (
	CollectionItems         = "inventory"
	CollectionBookings      = "bookings"
	CollectionDamageReports = "damageReports"
)

type Document struct {
	ID      string
	Version int64
	Fields  map[string]any
}

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Store persists documents keyed by collection and id.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Put writes fields when the stored version equals expectedVersion and
	// returns the new version. expectedVersion 0 creates the document and
	// fails with ErrVersionConflict if it already exists.
	Put(ctx context.Context, collection, id string, fields map[string]any, expectedVersion int64) (int64, error)

	Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)

	Delete(ctx context.Context, collection, id string, expectedVersion int64) error
}
