package ledger

import (
	"sort"
	"sync"

	"gearrent-backend/internal/logger"
)

// Observer is notified after every committed, non-duplicate operation.
// Observers run synchronously on the caller's goroutine and must not block.
type Observer func(Result)

type observers struct {
	mu     sync.RWMutex
	nextID int
	byID   map[int]Observer
}

func newObservers() *observers {
	return &observers{byID: make(map[int]Observer)}
}

// Subscribe registers fn and returns a function that unregisters it.
func (o *observers) Subscribe(fn Observer) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.byID[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.byID, id)
		o.mu.Unlock()
	}
}

func (o *observers) notify(r Result) {
	o.mu.RLock()
	ids := make([]int, 0, len(o.byID))
	for id := range o.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.byID[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Ledger observer panicked", "item", r.ItemID, "operation", r.Kind, "panic", p)
				}
			}()
			fn(r)
		}()
	}
}
