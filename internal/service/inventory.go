package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/repository"
)

type inventoryService struct {
	items  repository.ItemRepository
	ledger InventoryLedger
	cache  *ItemCache
	now    func() time.Time
}

func NewInventoryService(items repository.ItemRepository, ledger InventoryLedger, cache *ItemCache) InventoryService {
	if cache == nil {
		cache = NewItemCache(0)
	}
	return &inventoryService{
		items:  items,
		ledger: ledger,
		cache:  cache,
		now:    time.Now,
	}
}

// Bootstrap creates the predefined catalog items that are missing. Items
// already present are left untouched.
func (s *inventoryService) Bootstrap(ctx context.Context) (int, error) {
	logger.EnterMethod("inventoryService.Bootstrap")

	created := 0
	for _, item := range domain.PredefinedCatalog() {
		_, err := s.items.GetByID(ctx, item.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrItemNotFound) {
			logger.ExitMethodWithError("inventoryService.Bootstrap", err, "item", item.ID)
			return created, err
		}

		now := s.now()
		item.CreatedAt, item.UpdatedAt = now, now
		if err := s.items.Create(ctx, &item); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			logger.ExitMethodWithError("inventoryService.Bootstrap", err, "item", item.ID)
			return created, err
		}
		metrics.SetItemQuantities(item.ID, item.Quantities())
		created++
	}
	if created > 0 {
		s.cache.Invalidate("")
	}

	logger.ExitMethod("inventoryService.Bootstrap", "created", created)
	return created, nil
}

func (s *inventoryService) AddItem(ctx context.Context, req NewItemRequest) (*domain.InventoryItem, error) {
	logger.EnterMethod("inventoryService.AddItem", "name", req.Name)

	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidQuantity)
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now()
	item := &domain.InventoryItem{
		ID:                id,
		Name:              strings.TrimSpace(req.Name),
		Category:          req.Category,
		Description:       req.Description,
		DailyRate:         req.DailyRate,
		ImageURL:          req.ImageURL,
		TotalQuantity:     req.Quantity,
		AvailableQuantity: req.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, item.Name, ""); err != nil {
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			err = fmt.Errorf("%w: item id %s is taken", domain.ErrInvalidInput, id)
		}
		logger.ExitMethodWithError("inventoryService.AddItem", err, "id", id)
		return nil, err
	}

	s.cache.Invalidate(item.ID)
	metrics.SetItemQuantities(item.ID, item.Quantities())
	logger.ExitMethod("inventoryService.AddItem", "id", item.ID)
	return item, nil
}

// UpdateItem edits descriptive fields. Quantities are owned by the ledger
// and are never written here, so the write is a compare-and-swap that
// retries when a ledger operation lands in between.
func (s *inventoryService) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*domain.InventoryItem, error) {
	logger.EnterMethod("inventoryService.UpdateItem", "id", id)

	var updated *domain.InventoryItem
	err := retryOnConflict("item "+id, func() error {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Name != nil && domain.NameKey(*req.Name) != domain.NameKey(item.Name) {
			if err := s.checkNameFree(ctx, *req.Name, item.ID); err != nil {
				return err
			}
		}
		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			item.Category = *req.Category
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.DailyRate != nil {
			item.DailyRate = *req.DailyRate
		}
		if req.ImageURL != nil {
			item.ImageURL = *req.ImageURL
		}
		if err := item.Validate(); err != nil {
			return err
		}
		item.UpdatedAt = s.now()
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("inventoryService.UpdateItem", err, "id", id)
		return nil, err
	}

	s.cache.Invalidate(id)
	logger.ExitMethod("inventoryService.UpdateItem", "id", id)
	return updated, nil
}

// DeleteItem removes a user-added item that has no reserved units.
func (s *inventoryService) DeleteItem(ctx context.Context, id string) error {
	logger.EnterMethod("inventoryService.DeleteItem", "id", id)

	err := retryOnConflict("item "+id, func() error {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item.Predefined {
			return fmt.Errorf("%w: %s", domain.ErrPredefinedItem, id)
		}
		if item.ReservedQuantity > 0 {
			return fmt.Errorf("%w: %s has %d reserved", domain.ErrItemReserved, id, item.ReservedQuantity)
		}
		return s.items.Delete(ctx, item)
	})
	if err != nil {
		logger.ExitMethodWithError("inventoryService.DeleteItem", err, "id", id)
		return err
	}

	s.cache.Invalidate(id)
	metrics.DeleteItem(id)
	logger.ExitMethod("inventoryService.DeleteItem", "id", id)
	return nil
}

// GetItem resolves ref by id, then by case-insensitive name.
func (s *inventoryService) GetItem(ctx context.Context, ref string) (*domain.InventoryItem, error) {
	if item, ok := s.cache.Get(ref); ok {
		return item, nil
	}
	mark := s.cache.Mark()
	item, err := s.items.GetByID(ctx, ref)
	if err == nil {
		s.cache.Put(*item, mark)
		return item, nil
	}
	if !errors.Is(err, domain.ErrItemNotFound) {
		return nil, err
	}
	item, err = s.items.GetByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.cache.PutAlias(ref, *item, mark)
	return item, nil
}

// ListItems lists all items, or those of one category.
func (s *inventoryService) ListItems(ctx context.Context, category domain.Category) ([]domain.InventoryItem, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}
	if items, ok := s.cache.GetList(category); ok {
		return items, nil
	}

	mark := s.cache.Mark()
	var items []domain.InventoryItem
	var err error
	if category == "" {
		items, err = s.items.List(ctx)
	} else {
		items, err = s.items.ListByCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}
	s.cache.PutList(category, items, mark)
	return items, nil
}

// ApplyOperation runs one ledger operation by kind, for admin tooling.
func (s *inventoryService) ApplyOperation(ctx context.Context, ref string, kind domain.OperationKind, qty int, opID string) (*ledger.Result, error) {
	switch kind {
	case domain.OpReserve:
		return s.ledger.Reserve(ctx, ref, qty, opID)
	case domain.OpRelease:
		return s.ledger.Release(ctx, ref, qty, opID)
	case domain.OpMarkDamaged:
		return s.ledger.MarkDamaged(ctx, ref, opID)
	case domain.OpRestore:
		return s.ledger.MarkRepairedOrRestored(ctx, ref, restoredDamageOp(opID), opID)
	case domain.OpWriteOff:
		return s.ledger.WriteOff(ctx, ref, opID)
	case domain.OpReturn:
		return s.ledger.ReturnItems(ctx, ref, qty, opID)
	case domain.OpAdjustStock:
		return s.ledger.AdjustStock(ctx, ref, qty, opID)
	}
	return nil, fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidInput, kind)
}

func (s *inventoryService) checkNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.items.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateItemName, name)
	}
	return nil
}
