package messaging

import (
	"context"
	"sync"
	"time"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/metrics"
)

// InventoryEvent is published for every committed ledger operation.
type InventoryEvent struct {
	ItemID      string               `json:"itemId"`
	ItemName    string               `json:"itemName"`
	Operation   domain.OperationKind `json:"operation"`
	OperationID string               `json:"operationId,omitempty"`
	Quantity    int                  `json:"quantity"`
	Before      domain.Quantities    `json:"before"`
	After       domain.Quantities    `json:"after"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// RoutingKey is inventory.<operation>, e.g. inventory.reserve.
func RoutingKey(op domain.OperationKind) string {
	return "inventory." + string(op)
}

func eventFor(r ledger.Result) InventoryEvent {
	return InventoryEvent{
		ItemID:      r.ItemID,
		ItemName:    r.ItemName,
		Operation:   r.Kind,
		OperationID: r.OperationID,
		Quantity:    r.Quantity,
		Before:      r.Before,
		After:       r.After,
		OccurredAt:  r.AppliedAt,
	}
}

// AsyncObserver queues ledger results and publishes them from its own
// goroutine, so a slow or unreachable broker never holds up a ledger
// caller. When the queue is full the event is dropped and counted.
// Publishing failures are logged; the ledger write has already committed.
type AsyncObserver struct {
	publisher EventPublisher
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan ledger.Result
	done   chan struct{}
}

func NewAsyncObserver(p EventPublisher, timeout time.Duration, buffer int) *AsyncObserver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &AsyncObserver{
		publisher: p,
		timeout:   timeout,
		queue:     make(chan ledger.Result, buffer),
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

// Observe is a ledger.Observer. It never blocks.
func (a *AsyncObserver) Observe(r ledger.Result) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.InventoryEvents.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case a.queue <- r:
	default:
		metrics.InventoryEvents.WithLabelValues("dropped").Inc()
		logger.Warn("Inventory event queue full, dropping event", "item", r.ItemID, "operation", r.Kind, "operation_id", r.OperationID)
	}
}

// Close stops accepting events and waits for the queued ones to be sent.
func (a *AsyncObserver) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *AsyncObserver) run() {
	defer close(a.done)
	for r := range a.queue {
		a.publish(r)
	}
}

func (a *AsyncObserver) publish(r ledger.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.publisher.PublishJSON(ctx, RoutingKey(r.Kind), eventFor(r)); err != nil {
		metrics.InventoryEvents.WithLabelValues("failed").Inc()
		logger.Warn("Failed to publish inventory event", "item", r.ItemID, "operation", r.Kind, "error", err)
		return
	}
	metrics.InventoryEvents.WithLabelValues("published").Inc()
}
