package entities

import (
	"fmt"
	"time"
)

// MenuItemID identifies a sellable menu item
type MenuItemID string

// StoreID identifies a store (location) within a tenant
type StoreID string

// MenuItem links a POS product to at most one recipe. Each sale consumes ServingQty of the
// recipe's yield; a zero ServingQty means one full batch per sale.
type MenuItem struct {
	ID          MenuItemID
	SKU         string
	Name        string
	RecipeID    *RecipeID
	ServingQty  float64
	ServingUnit UnitID
}

// NewMenuItem creates a validated MenuItem. recipeID may be nil for non-recipe items.
func NewMenuItem(id MenuItemID, sku, name string, recipeID *RecipeID, servingQty float64, servingUnit UnitID) (*MenuItem, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("menu item id cannot be empty")
	}
	if sku == "" {
		return nil, fmt.Errorf("menu item sku cannot be empty")
	}
	if name == "" {
		name = sku
	}
	if servingQty < 0 {
		return nil, fmt.Errorf("serving quantity cannot be negative, got %g", servingQty)
	}
	if servingQty > 0 && string(servingUnit) == "" {
		return nil, fmt.Errorf("serving unit is required when serving quantity is set")
	}

	return &MenuItem{
		ID:          id,
		SKU:         sku,
		Name:        name,
		RecipeID:    recipeID,
		ServingQty:  servingQty,
		ServingUnit: servingUnit,
	}, nil
}

// HasRecipe reports whether the menu item participates in costing and variance
func (m *MenuItem) HasRecipe() bool {
	return m.RecipeID != nil && string(*m.RecipeID) != ""
}

// SalesLine is a quantity of one SKU sold at a store
type SalesLine struct {
	StoreID  StoreID
	SKU      string
	Quantity float64
	SoldAt   time.Time
}
