package repositories

import (
	"time"

	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// MenuItemRepository provides access to sellable menu items
type MenuItemRepository interface {
	GetMenuItem(id entities.MenuItemID) (*entities.MenuItem, error)
	GetMenuItemBySKU(sku string) (*entities.MenuItem, error)
	GetAllMenuItems() ([]*entities.MenuItem, error)
	LoadMenuItems(items []*entities.MenuItem) error
}

// SalesRepository provides POS sales lines
type SalesRepository interface {
	// GetSales returns lines for the store with from < SoldAt <= to
	GetSales(storeID entities.StoreID, from, to time.Time) ([]*entities.SalesLine, error)
	LoadSales(lines []*entities.SalesLine) error
}
