package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gearrent-backend/internal/logger"
)

// versionField holds the document version inside each Firestore document.
const versionField = "docVersion"

// FirestoreStore maps documents onto Firestore collections. Version checks
// run inside a Firestore transaction.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	logger.StoreCall("get", collection, "id", id, "backend", "firestore")
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.StoreResult("get", collection, err, "id", id)
		return nil, err
	}
	return fromSnapshot(snap), nil
}

func (s *FirestoreStore) Put(ctx context.Context, collection, id string, fields map[string]any, expectedVersion int64) (int64, error) {
	ref := s.client.Collection(collection).Doc(id)
	var next int64

	logger.StoreCall("put", collection, "id", id, "expected_version", expectedVersion, "backend", "firestore")
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := currentVersion(tx, ref)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}
		next = current + 1

		data := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			data[k] = v
		}
		data[versionField] = next
		return tx.Set(ref, data)
	})
	if err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			logger.StoreResult("put", collection, err, "id", id)
		}
		return 0, err
	}
	return next, nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}

	logger.StoreCall("query", collection, "filters", len(filters), "backend", "firestore")
	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []*Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			logger.StoreResult("query", collection, err)
			return nil, err
		}
		docs = append(docs, fromSnapshot(snap))
	}
	return docs, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string, expectedVersion int64) error {
	ref := s.client.Collection(collection).Doc(id)

	logger.StoreCall("delete", collection, "id", id, "backend", "firestore")
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := currentVersion(tx, ref)
		if err != nil {
			return err
		}
		if current == 0 {
			return ErrNotFound
		}
		if expectedVersion != AnyVersion && current != expectedVersion {
			return ErrVersionConflict
		}
		return tx.Delete(ref)
	})
}

// currentVersion returns 0 when the document does not exist.
func currentVersion(tx *firestore.Transaction, ref *firestore.DocumentRef) (int64, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", ref.Path, err)
	}
	return versionOf(snap.Data()), nil
}

func fromSnapshot(snap *firestore.DocumentSnapshot) *Document {
	data := snap.Data()
	version := versionOf(data)
	delete(data, versionField)
	return &Document{ID: snap.Ref.ID, Version: version, Fields: data}
}

func versionOf(data map[string]any) int64 {
	switch v := data[versionField].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
