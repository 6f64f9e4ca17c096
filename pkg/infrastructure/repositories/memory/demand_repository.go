package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// MenuItemRepository provides in-memory menu item storage
type MenuItemRepository struct {
	items    []entities.MenuItem
	itemsMap map[entities.MenuItemID]int
	skuMap   map[string]int
	mutex    sync.RWMutex
}

// NewMenuItemRepository creates a new in-memory menu item repository
func NewMenuItemRepository() *MenuItemRepository {
	return &MenuItemRepository{
		itemsMap: make(map[entities.MenuItemID]int),
		skuMap:   make(map[string]int),
	}
}

// Verify interface compliance
var _ repositories.MenuItemRepository = (*MenuItemRepository)(nil)

// LoadMenuItems loads menu items into the repository
func (r *MenuItemRepository) LoadMenuItems(items []*entities.MenuItem) error {
	for _, item := range items {
		if err := r.AddMenuItem(*item); err != nil {
			return err
		}
	}
	return nil
}

// AddMenuItem adds a menu item; SKUs must be unique
func (r *MenuItemRepository) AddMenuItem(item entities.MenuItem) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if index, exists := r.skuMap[item.SKU]; exists && r.items[index].ID != item.ID {
		return fmt.Errorf("duplicate menu item sku %s on %s and %s", item.SKU, r.items[index].ID, item.ID)
	}
	if index, exists := r.itemsMap[item.ID]; exists {
		delete(r.skuMap, r.items[index].SKU)
		r.items[index] = item
		r.skuMap[item.SKU] = index
		return nil
	}
	r.itemsMap[item.ID] = len(r.items)
	r.skuMap[item.SKU] = len(r.items)
	r.items = append(r.items, item)
	return nil
}

// GetMenuItem returns a menu item by id
func (r *MenuItemRepository) GetMenuItem(id entities.MenuItemID) (*entities.MenuItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.itemsMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrMenuItemNotFound, id)
	}
	item := r.items[index]
	return &item, nil
}

// GetMenuItemBySKU returns the menu item sold under a POS SKU
func (r *MenuItemRepository) GetMenuItemBySKU(sku string) (*entities.MenuItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.skuMap[sku]
	if !exists {
		return nil, fmt.Errorf("%w: sku %s", entities.ErrMenuItemNotFound, sku)
	}
	item := r.items[index]
	return &item, nil
}

// GetAllMenuItems returns all menu items in insertion order
func (r *MenuItemRepository) GetAllMenuItems() ([]*entities.MenuItem, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	items := make([]*entities.MenuItem, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}

// SalesRepository provides in-memory POS sales storage
type SalesRepository struct {
	lines []entities.SalesLine
	mutex sync.RWMutex
}

// NewSalesRepository creates a new in-memory sales repository
func NewSalesRepository() *SalesRepository {
	return &SalesRepository{}
}

// Verify interface compliance
var _ repositories.SalesRepository = (*SalesRepository)(nil)

// LoadSales loads sales lines into the repository
func (r *SalesRepository) LoadSales(lines []*entities.SalesLine) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, line := range lines {
		r.lines = append(r.lines, *line)
	}
	return nil
}

// GetSales returns sales for the store in the half-open window (from, to]
func (r *SalesRepository) GetSales(storeID entities.StoreID, from, to time.Time) ([]*entities.SalesLine, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var lines []*entities.SalesLine
	for i := range r.lines {
		line := r.lines[i]
		if line.StoreID != storeID {
			continue
		}
		if !line.SoldAt.After(from) || line.SoldAt.After(to) {
			continue
		}
		lines = append(lines, &line)
	}
	return lines, nil
}

// AllSales returns every sales line in load order
func (r *SalesRepository) AllSales() []*entities.SalesLine {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	lines := make([]*entities.SalesLine, 0, len(r.lines))
	for i := range r.lines {
		line := r.lines[i]
		lines = append(lines, &line)
	}
	return lines
}
