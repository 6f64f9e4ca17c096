package memory

import (
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// TenantID scopes persisted catalogs
type TenantID string

// Catalog is one tenant's in-memory snapshot of everything the costing core reads
type Catalog struct {
	*UnitRepository
	*ItemRepository
	*RecipeRepository
	*MenuItemRepository
	*SalesRepository
	*CountRepository
	*MovementRepository
}

// NewCatalog creates an empty snapshot
func NewCatalog() *Catalog {
	return &Catalog{
		UnitRepository:     NewUnitRepository(),
		ItemRepository:     NewItemRepository(0),
		RecipeRepository:   NewRecipeRepository(0),
		MenuItemRepository: NewMenuItemRepository(),
		SalesRepository:    NewSalesRepository(),
		CountRepository:    NewCountRepository(),
		MovementRepository: NewMovementRepository(),
	}
}

// Verify interface compliance
var _ repositories.Reporting = (*Catalog)(nil)
var _ repositories.CostWriter = (*Catalog)(nil)

// Stats summarizes the snapshot size
type Stats struct {
	Units       int
	Conversions int
	Items       int
	Recipes     int
	MenuItems   int
}

// Stats returns the number of catalog entries per kind
func (c *Catalog) Stats() Stats {
	units, _ := c.GetAllUnits()
	conversions, _ := c.GetAllConversions()
	items, _ := c.GetAllInventoryItems()
	recipes, _ := c.GetAllRecipes()
	menuItems, _ := c.GetAllMenuItems()
	return Stats{
		Units:       len(units),
		Conversions: len(conversions),
		Items:       len(items),
		Recipes:     len(recipes),
		MenuItems:   len(menuItems),
	}
}
