package domain_test

import (
	"testing"
	"time"

	"gearrent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantities_Reserve(t *testing.T) {
	q := domain.Quantities{Total: 3, Available: 3}

	t.Run("Success", func(t *testing.T) {
		next, err := q.Reserve(3)
		require.NoError(t, err)
		assert.Equal(t, domain.Quantities{Total: 3, Available: 3, Reserved: 3}, next)
		assert.Equal(t, 0, next.Free())
	})

	t.Run("Insufficient Stock", func(t *testing.T) {
		full := domain.Quantities{Total: 3, Available: 3, Reserved: 3}
		next, err := full.Reserve(1)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, full, next)
	})

	t.Run("Non Positive Quantity", func(t *testing.T) {
		_, err := q.Reserve(0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

func TestQuantities_Release(t *testing.T) {
	q := domain.Quantities{Total: 5, Available: 5, Reserved: 2}

	next, err := q.Release(5)
	require.NoError(t, err)
	assert.Equal(t, 0, next.Reserved)

	_, err = q.Release(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestQuantities_MarkDamagedAndRestore(t *testing.T) {
	q := domain.Quantities{Total: 2, Available: 2}

	damaged, err := q.MarkDamaged()
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{Total: 1, Available: 1}, damaged)

	restored, err := damaged.Restore()
	require.NoError(t, err)
	assert.Equal(t, q, restored)

	t.Run("Requires A Free Unit", func(t *testing.T) {
		busy := domain.Quantities{Total: 2, Available: 2, Reserved: 2}
		_, err := busy.MarkDamaged()
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})

	t.Run("Total Floors At One", func(t *testing.T) {
		single := domain.Quantities{Total: 1, Available: 1}
		next, err := single.MarkDamaged()
		require.NoError(t, err)
		assert.Equal(t, domain.Quantities{Total: 1, Available: 0}, next)
		assert.NoError(t, next.Validate())
	})
}

func TestQuantities_Return(t *testing.T) {
	q := domain.Quantities{Total: 4, Available: 2, Reserved: 1}
	next, err := q.Return(5)
	require.NoError(t, err)
	assert.Equal(t, 4, next.Available)
	assert.Equal(t, 1, next.Reserved)
}

func TestQuantities_Adjust(t *testing.T) {
	q := domain.Quantities{Total: 4, Available: 4, Reserved: 3}

	next, err := q.Adjust(2)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{Total: 6, Available: 6, Reserved: 3}, next)

	_, err = q.Adjust(-2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = domain.Quantities{Total: 1, Available: 1}.Adjust(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestQuantities_Validate(t *testing.T) {
	assert.NoError(t, domain.Quantities{Total: 3, Available: 2, Reserved: 2}.Validate())
	assert.ErrorIs(t, domain.Quantities{Total: 3, Available: 4}.Validate(), domain.ErrInvariantViolation)
	assert.ErrorIs(t, domain.Quantities{Total: 3, Available: 1, Reserved: 2}.Validate(), domain.ErrInvariantViolation)
	assert.ErrorIs(t, domain.Quantities{Total: 0}.Validate(), domain.ErrInvariantViolation)
}

func TestQuantities_UndoDamage(t *testing.T) {
	single := domain.Quantities{Total: 1, Available: 1}
	damaged, err := single.MarkDamaged()
	require.NoError(t, err)
	assert.Equal(t, domain.Quantities{Total: 1, Available: 0}, damaged)

	restored, err := damaged.Undo(damaged.Sub(single))
	require.NoError(t, err)
	assert.Equal(t, single, restored)

	fleet := domain.Quantities{Total: 3, Available: 3, Reserved: 1}
	damaged, err = fleet.MarkDamaged()
	require.NoError(t, err)
	restored, err = damaged.Undo(damaged.Sub(fleet))
	require.NoError(t, err)
	assert.Equal(t, fleet, restored)

	_, err = fleet.Undo(domain.Quantities{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// a return filled the slot the damaged unit left
	capped, err := domain.Quantities{Total: 1, Available: 1}.Undo(domain.Quantities{Available: -1})
	require.NoError(t, err)
	assert.NoError(t, capped.Validate())
}

func TestInventoryItem_Operations(t *testing.T) {
	item := &domain.InventoryItem{ID: "cam-1", Name: "Camera", Category: domain.CategoryCamera, TotalQuantity: 2, AvailableQuantity: 2}
	now := time.Now()

	item.RecordOperation("", domain.OpReserve, 1, item.Quantities(), now)
	assert.Empty(t, item.AppliedOps)

	item.RecordOperation("old", domain.OpReserve, 1, item.Quantities(), now.Add(-48*time.Hour))
	item.RecordOperation("open", domain.OpReserve, 1, item.Quantities(), now.Add(-48*time.Hour))
	before := item.Quantities()
	item.SetQuantities(domain.Quantities{Total: 2, Available: 1})
	item.RecordOperation("new", domain.OpMarkDamaged, 1, before, now)
	assert.Len(t, item.AppliedOps, 3)
	assert.Equal(t, domain.Quantities{Total: 0, Available: -1}, item.AppliedOps["new"].Delta)

	removed := item.PruneOperations(now.Add(-24*time.Hour), func(opID string) bool { return opID == "open" })
	assert.Equal(t, 1, removed)
	assert.Contains(t, item.AppliedOps, "new")
	assert.Contains(t, item.AppliedOps, "open")

	assert.Equal(t, 1, item.PruneOperations(now.Add(-24*time.Hour), nil))
}

func TestInventoryItem_Validate(t *testing.T) {
	item := domain.InventoryItem{Name: "Tripod", Category: "furniture", TotalQuantity: 1, AvailableQuantity: 1}
	assert.ErrorIs(t, item.Validate(), domain.ErrInvalidInput)

	item.Category = domain.CategoryGrip
	assert.NoError(t, item.Validate())
}

func TestPredefinedCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, item := range domain.PredefinedCatalog() {
		assert.True(t, item.Predefined)
		assert.NoError(t, item.Validate(), item.ID)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}
