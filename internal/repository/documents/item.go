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

// nameKeyField stores the lowercased name so items can be found by name
// regardless of case.
const nameKeyField = "nameKey"

type itemRepository struct {
	store docstore.Store
}

func NewItemRepository(store docstore.Store) repository.ItemRepository {
	return &itemRepository{store: store}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	fields, err := itemFields(item)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionItems, item.ID, fields, 0)
	if err != nil {
		return err
	}
	item.Version = v
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionItems, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeItem(doc)
}

func (r *itemRepository) GetByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionItems, docstore.Filter{Field: nameKeyField, Value: domain.NameKey(name)})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, name)
	}
	return decodeItem(docs[0])
}

func (r *itemRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return r.query(ctx)
}

func (r *itemRepository) ListByCategory(ctx context.Context, category domain.Category) ([]domain.InventoryItem, error) {
	return r.query(ctx, docstore.Filter{Field: "category", Value: string(category)})
}

func (r *itemRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	fields, err := itemFields(item)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, docstore.CollectionItems, item.ID, fields, item.Version)
	if err != nil {
		return err
	}
	item.Version = v
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, item *domain.InventoryItem) error {
	err := r.store.Delete(ctx, docstore.CollectionItems, item.ID, item.Version)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.ID)
	}
	return err
}

func (r *itemRepository) query(ctx context.Context, filters ...docstore.Filter) ([]domain.InventoryItem, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionItems, filters...)
	if err != nil {
		return nil, err
	}
	items := make([]domain.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func itemFields(item *domain.InventoryItem) (map[string]any, error) {
	fields, err := toFields(item)
	if err != nil {
		return nil, err
	}
	fields[nameKeyField] = domain.NameKey(item.Name)
	return fields, nil
}

func decodeItem(doc *docstore.Document) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	if err := fromDocument(doc, item); err != nil {
		return nil, err
	}
	item.ID = doc.ID
	item.Version = doc.Version
	return item, nil
}
