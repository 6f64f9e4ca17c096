package repositories

import "github.com/vsinha/recipecost/pkg/domain/entities"

// InventoryItemRepository provides access to inventory item master data
type InventoryItemRepository interface {
	GetInventoryItem(id entities.ItemID) (*entities.InventoryItem, error)
	GetAllInventoryItems() ([]*entities.InventoryItem, error)
	LoadInventoryItems(items []*entities.InventoryItem) error
}
