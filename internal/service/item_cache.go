package service

import (
	"sync"
	"time"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
)

type cachedItem struct {
	item    domain.InventoryItem
	expires time.Time
}

type cachedList struct {
	items   []domain.InventoryItem
	expires time.Time
}

// ItemCache holds recently read items and lists for a short time. Any
// ledger change or catalog edit invalidates the item and every cached list.
//
// Readers take a Mark before going to the store and pass it to Put. A fill
// whose mark is older than the last invalidation of that item (or of any
// item, for lists and aliases) is dropped.
type ItemCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]cachedItem // by exact id
	lists map[domain.Category]cachedList

	// aliases maps a reference that did not match any id to the id it
	// resolved to by name
	aliases map[string]string

	seq            uint64
	invalidatedAt  map[string]uint64
	listsDroppedAt uint64
}

func NewItemCache(ttl time.Duration) *ItemCache {
	return &ItemCache{
		ttl:           ttl,
		now:           time.Now,
		items:         make(map[string]cachedItem),
		aliases:       make(map[string]string),
		lists:         make(map[domain.Category]cachedList),
		invalidatedAt: make(map[string]uint64),
	}
}

// Mark returns the invalidation sequence to hand back to Put or PutList.
func (c *ItemCache) Mark() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Get looks ref up as an id first, then as a name reference seen before.
func (c *ItemCache) Get(ref string) (*domain.InventoryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.live(ref); ok {
		return item, true
	}
	id, ok := c.aliases[ref]
	if !ok {
		return nil, false
	}
	return c.live(id)
}

func (c *ItemCache) live(id string) (*domain.InventoryItem, bool) {
	e, ok := c.items[id]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	item := e.item
	return &item, true
}

// Put caches item read at mark under its id.
func (c *ItemCache) Put(item domain.InventoryItem, mark uint64) {
	c.put("", item, mark)
}

// PutAlias caches item read at mark and remembers that ref, which is not an
// id, resolved to it.
func (c *ItemCache) PutAlias(ref string, item domain.InventoryItem, mark uint64) {
	c.put(ref, item, mark)
}

func (c *ItemCache) put(ref string, item domain.InventoryItem, mark uint64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidatedAt[item.ID] > mark || (ref != "" && c.listsDroppedAt > mark) {
		return
	}
	c.items[item.ID] = cachedItem{item: item, expires: c.now().Add(c.ttl)}
	if ref != "" && ref != item.ID {
		c.aliases[ref] = item.ID
	}
}

func (c *ItemCache) GetList(category domain.Category) ([]domain.InventoryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lists[category]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return append([]domain.InventoryItem(nil), e.items...), true
}

// PutList caches a list read at mark unless any item changed since.
func (c *ItemCache) PutList(category domain.Category, items []domain.InventoryItem, mark uint64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listsDroppedAt > mark {
		return
	}
	c.lists[category] = cachedList{items: append([]domain.InventoryItem(nil), items...), expires: c.now().Add(c.ttl)}
}

// Invalidate drops itemID, every name alias and all lists. An empty itemID
// only drops aliases and lists, for bulk creation.
func (c *ItemCache) Invalidate(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if itemID != "" {
		delete(c.items, itemID)
		c.invalidatedAt[itemID] = c.seq
	}
	clear(c.aliases)
	clear(c.lists)
	c.listsDroppedAt = c.seq
}

// Observe is a ledger.Observer.
func (c *ItemCache) Observe(r ledger.Result) {
	c.Invalidate(r.ItemID)
}
