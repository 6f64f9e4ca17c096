package repositories

// Catalog is a read snapshot of one tenant's costing data
type Catalog interface {
	UnitRepository
	InventoryItemRepository
	RecipeRepository
}

// Reporting is a read snapshot of one tenant's costing and sales data
type Reporting interface {
	Catalog
	MenuItemRepository
	SalesRepository
	CountRepository
	MovementRepository
}
