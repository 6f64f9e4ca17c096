package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecipeID identifies a recipe
type RecipeID string

// ComponentRef is what a recipe line points at: an inventory item or another recipe.
// The interface is sealed so no third variant can exist.
type ComponentRef interface {
	componentRef()
	String() string
}

// InventoryItemRef references an InventoryItem by id
type InventoryItemRef struct {
	ID ItemID
}

func (InventoryItemRef) componentRef() {}

func (r InventoryItemRef) String() string {
	return "item:" + string(r.ID)
}

// RecipeRef references a Recipe by id
type RecipeRef struct {
	ID RecipeID
}

func (RecipeRef) componentRef() {}

func (r RecipeRef) String() string {
	return "recipe:" + string(r.ID)
}

// RecipeComponent is a single line in a recipe's bill of materials
type RecipeComponent struct {
	Position int
	Ref      ComponentRef
	Quantity float64
	Unit     UnitID
}

// NewRecipeComponent creates a validated RecipeComponent
func NewRecipeComponent(position int, ref ComponentRef, quantity float64, unit UnitID) (*RecipeComponent, error) {
	if ref == nil {
		return nil, fmt.Errorf("component reference cannot be nil")
	}
	switch r := ref.(type) {
	case InventoryItemRef:
		if string(r.ID) == "" {
			return nil, fmt.Errorf("component inventory item id cannot be empty")
		}
	case RecipeRef:
		if string(r.ID) == "" {
			return nil, fmt.Errorf("component recipe id cannot be empty")
		}
	}
	if quantity < 0 {
		return nil, fmt.Errorf("component quantity cannot be negative, got %g", quantity)
	}
	if string(unit) == "" {
		return nil, fmt.Errorf("component unit cannot be empty")
	}

	return &RecipeComponent{
		Position: position,
		Ref:      ref,
		Quantity: quantity,
		Unit:     unit,
	}, nil
}

// Recipe is a bill of materials producing YieldQty of YieldUnit.
// ComputedCost holds the total batch cost and is owned by the recalculation path.
type Recipe struct {
	ID            RecipeID
	Name          string
	YieldQty      float64
	YieldUnit     UnitID
	ComputedCost  decimal.Decimal
	IsSubRecipe   bool
	IsPlaceholder bool
	Components    []RecipeComponent
}

// NewRecipe creates a validated Recipe without components
func NewRecipe(id RecipeID, name string, yieldQty float64, yieldUnit UnitID) (*Recipe, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("recipe id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("recipe name cannot be empty")
	}
	if yieldQty <= 0 {
		return nil, fmt.Errorf("recipe yield quantity must be positive, got %g", yieldQty)
	}
	if string(yieldUnit) == "" {
		return nil, fmt.Errorf("recipe yield unit cannot be empty")
	}

	return &Recipe{
		ID:        id,
		Name:      name,
		YieldQty:  yieldQty,
		YieldUnit: yieldUnit,
	}, nil
}

// AddComponent appends a line, assigning the next position when none is given
func (r *Recipe) AddComponent(ref ComponentRef, quantity float64, unit UnitID) error {
	position := len(r.Components) + 1
	component, err := NewRecipeComponent(position, ref, quantity, unit)
	if err != nil {
		return fmt.Errorf("failed to add component to recipe %s: %w", r.ID, err)
	}
	r.Components = append(r.Components, *component)
	return nil
}

// Clone returns a deep copy so snapshots never share component slices
func (r *Recipe) Clone() *Recipe {
	clone := *r
	clone.Components = make([]RecipeComponent, len(r.Components))
	copy(clone.Components, r.Components)
	return &clone
}
