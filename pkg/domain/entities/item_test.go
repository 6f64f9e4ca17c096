package entities

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInventoryItem_Validation(t *testing.T) {
	price := decimal.RequireFromString("0.001")

	item, err := NewInventoryItem("flour", "Flour", price, "lb", 100)
	if err != nil {
		t.Fatalf("Expected valid item creation to succeed: %v", err)
	}
	if !item.Active {
		t.Errorf("Expected new items to be active")
	}

	testCases := []struct {
		name        string
		id          ItemID
		itemName    string
		price       decimal.Decimal
		unit        UnitID
		yield       float64
		expectError string
	}{
		{"empty id", "", "Flour", price, "lb", 100, "inventory item id cannot be empty"},
		{"empty name", "flour", "", price, "lb", 100, "inventory item name cannot be empty"},
		{"empty unit", "flour", "Flour", price, "", 100, "inventory item unit cannot be empty"},
		{"negative price", "flour", "Flour", decimal.NewFromInt(-1), "lb", 100, "price cannot be negative, got -1"},
		{"yield above 100", "flour", "Flour", price, "lb", 120, "yield percent must be between 0 and 100, got 120"},
		{"negative yield", "flour", "Flour", price, "lb", -5, "yield percent must be between 0 and 100, got -5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInventoryItem(tc.id, tc.itemName, tc.price, tc.unit, tc.yield)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestInventoryItem_YieldFraction(t *testing.T) {
	testCases := []struct {
		name     string
		yield    float64
		expected float64
		valid    bool
	}{
		{"full yield", 100, 1, true},
		{"trimmed", 95, 0.95, true},
		{"half", 50, 0.5, true},
		{"zero yield", 0, 0, false},
		{"out of range", 150, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := &InventoryItem{ID: "x", YieldPercent: tc.yield}
			fraction, err := item.YieldFraction()
			if !tc.valid {
				if !errors.Is(err, ErrInvalidYieldPercent) {
					t.Fatalf("Expected ErrInvalidYieldPercent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if fraction != tc.expected {
				t.Errorf("Expected fraction %g, got %g", tc.expected, fraction)
			}
		})
	}
}

func TestMenuItem_Validation(t *testing.T) {
	recipeID := RecipeID("pizza")

	menu, err := NewMenuItem("menu-pizza", "SKU-1", "", &recipeID, 0, "")
	if err != nil {
		t.Fatalf("Expected valid menu item creation to succeed: %v", err)
	}
	if menu.Name != "SKU-1" {
		t.Errorf("Expected name to default to the SKU, got %s", menu.Name)
	}
	if !menu.HasRecipe() {
		t.Errorf("Expected menu item to have a recipe")
	}

	drink, _ := NewMenuItem("menu-soda", "SKU-2", "Soda", nil, 0, "")
	if drink.HasRecipe() {
		t.Errorf("Expected menu item without recipe")
	}

	if _, err := NewMenuItem("", "SKU-1", "Pizza", &recipeID, 0, ""); err == nil {
		t.Error("Expected error for empty id")
	}
	if _, err := NewMenuItem("menu-pizza", "", "Pizza", &recipeID, 0, ""); err == nil {
		t.Error("Expected error for empty sku")
	}
	if _, err := NewMenuItem("menu-pizza", "SKU-1", "Pizza", &recipeID, -1, "each"); err == nil {
		t.Error("Expected error for negative serving quantity")
	}
	if _, err := NewMenuItem("menu-pizza", "SKU-1", "Pizza", &recipeID, 0.125, ""); err == nil {
		t.Error("Expected error for serving quantity without unit")
	}
}
