package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// CountRepository provides in-memory inventory count storage
type CountRepository struct {
	counts map[entities.CountID]entities.InventoryCount
	mutex  sync.RWMutex
}

// NewCountRepository creates a new in-memory count repository
func NewCountRepository() *CountRepository {
	return &CountRepository{
		counts: make(map[entities.CountID]entities.InventoryCount),
	}
}

// Verify interface compliance
var _ repositories.CountRepository = (*CountRepository)(nil)

// LoadCounts loads counts into the repository
func (r *CountRepository) LoadCounts(counts []*entities.InventoryCount) error {
	for _, count := range counts {
		r.AddCount(count)
	}
	return nil
}

// AddCount adds a copy of the count, replacing any count with the same id
func (r *CountRepository) AddCount(count *entities.InventoryCount) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.counts[count.ID] = copyCount(count)
}

// GetCount returns a copy of a count by id
func (r *CountRepository) GetCount(id entities.CountID) (*entities.InventoryCount, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	count, exists := r.counts[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrCountNotFound, id)
	}
	c := copyCount(&count)
	return &c, nil
}

// GetCounts returns the store's counts ordered by time
func (r *CountRepository) GetCounts(storeID entities.StoreID) ([]*entities.InventoryCount, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var counts []*entities.InventoryCount
	for _, count := range r.counts {
		if count.StoreID != storeID {
			continue
		}
		c := copyCount(&count)
		counts = append(counts, &c)
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].TakenAt.Before(counts[j].TakenAt)
	})
	return counts, nil
}

func copyCount(count *entities.InventoryCount) entities.InventoryCount {
	c := *count
	c.OnHand = make(map[entities.ItemID]float64, len(count.OnHand))
	for id, qty := range count.OnHand {
		c.OnHand[id] = qty
	}
	return c
}

// MovementRepository provides in-memory stock movement storage
type MovementRepository struct {
	movements []entities.StockMovement
	mutex     sync.RWMutex
}

// NewMovementRepository creates a new in-memory movement repository
func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

// Verify interface compliance
var _ repositories.MovementRepository = (*MovementRepository)(nil)

// LoadMovements loads movements into the repository
func (r *MovementRepository) LoadMovements(movements []*entities.StockMovement) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, movement := range movements {
		r.movements = append(r.movements, *movement)
	}
	return nil
}

// GetMovements returns movements for the store in the half-open window (from, to]
func (r *MovementRepository) GetMovements(storeID entities.StoreID, from, to time.Time) ([]*entities.StockMovement, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var movements []*entities.StockMovement
	for i := range r.movements {
		movement := r.movements[i]
		if movement.StoreID != storeID {
			continue
		}
		if !movement.At.After(from) || movement.At.After(to) {
			continue
		}
		movements = append(movements, &movement)
	}
	return movements, nil
}

// AllCounts returns every count ordered by store and time
func (r *CountRepository) AllCounts() []*entities.InventoryCount {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	counts := make([]*entities.InventoryCount, 0, len(r.counts))
	for _, count := range r.counts {
		c := copyCount(&count)
		counts = append(counts, &c)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].StoreID != counts[j].StoreID {
			return counts[i].StoreID < counts[j].StoreID
		}
		if !counts[i].TakenAt.Equal(counts[j].TakenAt) {
			return counts[i].TakenAt.Before(counts[j].TakenAt)
		}
		return counts[i].ID < counts[j].ID
	})
	return counts
}

// AllMovements returns every movement in load order
func (r *MovementRepository) AllMovements() []*entities.StockMovement {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	movements := make([]*entities.StockMovement, 0, len(r.movements))
	for i := range r.movements {
		movement := r.movements[i]
		movements = append(movements, &movement)
	}
	return movements
}
