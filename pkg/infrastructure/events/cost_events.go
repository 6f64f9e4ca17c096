package events

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
)

const (
	InventoryItemPriceChangedEvent = "inventory_item.price_changed"
	RecipeChangedEvent             = "recipe.changed"
	RecipeCostsRecalculatedEvent   = "recipe.costs_recalculated"
)

type InventoryItemPriceChanged struct {
	ItemID   entities.ItemID `json:"item_id"`
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
}

type RecipeChanged struct {
	RecipeID entities.RecipeID `json:"recipe_id"`
}

type RecipeCostsRecalculated struct {
	RunID    string                                `json:"run_id"`
	Source   string                                `json:"source"`
	Updates  map[entities.RecipeID]decimal.Decimal `json:"updates"`
	Failures map[entities.RecipeID]string          `json:"failures,omitempty"`
}

func NewInventoryItemPriceChangedEvent(itemID entities.ItemID, oldPrice, newPrice decimal.Decimal) Event {
	return NewEvent(InventoryItemPriceChangedEvent, ItemStream(itemID), InventoryItemPriceChanged{
		ItemID:   itemID,
		OldPrice: oldPrice,
		NewPrice: newPrice,
	})
}

func NewRecipeChangedEvent(recipeID entities.RecipeID) Event {
	return NewEvent(RecipeChangedEvent, RecipeStream(recipeID), RecipeChanged{RecipeID: recipeID})
}

func NewRecipeCostsRecalculatedEvent(data RecipeCostsRecalculated) Event {
	return NewEvent(RecipeCostsRecalculatedEvent, RecalculationStream(data.RunID), data)
}
