package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// ItemRepository provides in-memory inventory item storage
type ItemRepository struct {
	items    []entities.InventoryItem
	itemsMap map[entities.ItemID]int
	mutex    sync.RWMutex
}

// NewItemRepository creates a new in-memory item repository
func NewItemRepository(expectedItems int) *ItemRepository {
	return &ItemRepository{
		items:    make([]entities.InventoryItem, 0, expectedItems),
		itemsMap: make(map[entities.ItemID]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.InventoryItemRepository = (*ItemRepository)(nil)

// LoadInventoryItems loads items into the repository
func (r *ItemRepository) LoadInventoryItems(items []*entities.InventoryItem) error {
	for _, item := range items {
		r.AddItem(*item)
	}
	return nil
}

// AddItem adds an item, replacing any item with the same id
func (r *ItemRepository) AddItem(item entities.InventoryItem) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if index, exists := r.itemsMap[item.ID]; exists {
		r.items[index] = item
		return
	}
	r.itemsMap[item.ID] = len(r.items)
	r.items = append(r.items, item)
}

// GetInventoryItem returns item master data for an id
func (r *ItemRepository) GetInventoryItem(id entities.ItemID) (*entities.InventoryItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.itemsMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrInventoryItemNotFound, id)
	}
	item := r.items[index]
	return &item, nil
}

// GetAllInventoryItems returns all items in insertion order
func (r *ItemRepository) GetAllInventoryItems() ([]*entities.InventoryItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	items := make([]*entities.InventoryItem, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}
