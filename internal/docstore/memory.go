package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type memoryEntry struct {
	version int64
	data    []byte
}

// MemoryStore keeps documents in process. Used for local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeEntry(id, entry)
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, fields map[string]any, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]memoryEntry)
		s.collections[collection] = docs
	}
	current, exists := docs[id]
	switch {
	case expectedVersion == 0 && exists:
		return 0, ErrVersionConflict
	case expectedVersion > 0 && (!exists || current.version != expectedVersion):
		return 0, ErrVersionConflict
	}

	next := current.version + 1
	docs[id] = memoryEntry{version: next, data: data}
	return next, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*Document
	for id, entry := range s.collections[collection] {
		doc, err := decodeEntry(id, entry)
		if err != nil {
			return nil, err
		}
		if matches(doc.Fields, filters) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	if expectedVersion != AnyVersion && entry.version != expectedVersion {
		return ErrVersionConflict
	}
	delete(s.collections[collection], id)
	return nil
}

func decodeEntry(id string, entry memoryEntry) (*Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(entry.data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &Document{ID: id, Version: entry.version, Fields: fields}, nil
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(fields[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}
