package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/services"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
)

// Store, counts and SKUs used by the pizza variance scenario
const (
	PizzaStore    entities.StoreID    = "store-1"
	OpeningCount  entities.CountID    = "count-open"
	ClosingCount  entities.CountID    = "count-close"
	PizzaMenuItem entities.MenuItemID = "menu-pizza"
	PizzaSKU      string              = "SKU-PIZZA"
)

// Line describes one component for AddRecipe
type Line struct {
	Ref      entities.ComponentRef
	Quantity float64
	Unit     entities.UnitID
}

// ItemLine is a component line consuming an inventory item
func ItemLine(id entities.ItemID, quantity float64, unit entities.UnitID) Line {
	return Line{Ref: entities.InventoryItemRef{ID: id}, Quantity: quantity, Unit: unit}
}

// RecipeLine is a component line consuming a sub-recipe
func RecipeLine(id entities.RecipeID, quantity float64, unit entities.UnitID) Line {
	return Line{Ref: entities.RecipeRef{ID: id}, Quantity: quantity, Unit: unit}
}

// Day returns midnight UTC of a day in January 2024
func Day(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

// NewStandardCatalog returns an empty catalog with the standard units and conversions
func NewStandardCatalog() *memory.Catalog {
	catalog := memory.NewCatalog()
	if err := catalog.LoadUnits(services.StandardUnits()); err != nil {
		panic(err)
	}
	if err := catalog.LoadConversions(services.StandardConversions()); err != nil {
		panic(err)
	}
	return catalog
}

// AddItem adds an item priced per natural unit, e.g. dollars per pound
func AddItem(catalog *memory.Catalog, id entities.ItemID, name string, unit entities.UnitID, pricePerUnit string, yieldPercent float64) *entities.InventoryItem {
	price := decimal.RequireFromString(pricePerUnit)
	perBase, err := services.NewUnitNormalizer(catalog).PricePerBaseUnit(price, unit)
	if err != nil {
		panic(err)
	}
	item, err := entities.NewInventoryItem(id, name, perBase, unit, yieldPercent)
	if err != nil {
		panic(err)
	}
	catalog.AddItem(*item)
	return item
}

// SetItemPrice replaces an item's price with a new per-natural-unit price
func SetItemPrice(catalog *memory.Catalog, id entities.ItemID, pricePerUnit string) {
	item, err := catalog.GetInventoryItem(id)
	if err != nil {
		panic(err)
	}
	perBase, err := services.NewUnitNormalizer(catalog).PricePerBaseUnit(decimal.RequireFromString(pricePerUnit), item.Unit)
	if err != nil {
		panic(err)
	}
	item.PricePerBaseUnit = perBase
	catalog.AddItem(*item)
}

// AddRecipe builds a recipe from lines and adds it to the catalog
func AddRecipe(catalog *memory.Catalog, id entities.RecipeID, name string, yieldQty float64, yieldUnit entities.UnitID, subRecipe bool, lines ...Line) *entities.Recipe {
	recipe, err := entities.NewRecipe(id, name, yieldQty, yieldUnit)
	if err != nil {
		panic(err)
	}
	recipe.IsSubRecipe = subRecipe
	for _, line := range lines {
		if err := recipe.AddComponent(line.Ref, line.Quantity, line.Unit); err != nil {
			panic(err)
		}
	}
	catalog.AddRecipe(recipe)
	return recipe
}

// BuildPizzaScenario builds the dough and pizza catalog:
//
//	dough: 2 lb flour ($0.50/lb) + 1 lb water ($0), yields 10 each  -> $1.00 batch, $0.10 each
//	pizza: 1 each dough + 4 oz cheese ($4/lb, 95% yield), yields 1  -> ~$1.1526
func BuildPizzaScenario() *memory.Catalog {
	catalog := NewStandardCatalog()

	AddItem(catalog, "flour", "Flour", "lb", "0.50", 100)
	AddItem(catalog, "water", "Water", "lb", "0", 100)
	AddItem(catalog, "cheese", "Mozzarella", "lb", "4.00", 95)

	AddRecipe(catalog, "dough", "Pizza Dough", 10, "each", true,
		ItemLine("flour", 2, "lb"),
		ItemLine("water", 1, "lb"),
	)
	AddRecipe(catalog, "pizza", "Cheese Pizza", 1, "each", false,
		RecipeLine("dough", 1, "each"),
		ItemLine("cheese", 4, "oz"),
	)

	return catalog
}

// BuildPizzaVarianceScenario adds a week of sales, counts and movements to the pizza
// catalog. 10 pizzas are sold, 5 lb of flour received and 0.5 lb of cheese wasted.
func BuildPizzaVarianceScenario() *memory.Catalog {
	catalog := BuildPizzaScenario()

	recipeID := entities.RecipeID("pizza")
	menu, err := entities.NewMenuItem(PizzaMenuItem, PizzaSKU, "Cheese Pizza", &recipeID, 0, "")
	if err != nil {
		panic(err)
	}
	if err := catalog.AddMenuItem(*menu); err != nil {
		panic(err)
	}

	if err := catalog.LoadSales([]*entities.SalesLine{
		{StoreID: PizzaStore, SKU: PizzaSKU, Quantity: 6, SoldAt: Day(3)},
		{StoreID: PizzaStore, SKU: PizzaSKU, Quantity: 4, SoldAt: Day(5)},
		// Outside the window and at another store
		{StoreID: PizzaStore, SKU: PizzaSKU, Quantity: 100, SoldAt: Day(9)},
		{StoreID: "store-2", SKU: PizzaSKU, Quantity: 50, SoldAt: Day(4)},
	}); err != nil {
		panic(err)
	}

	opening, _ := entities.NewInventoryCount(OpeningCount, PizzaStore, Day(1))
	_ = opening.Set("flour", 10)
	_ = opening.Set("water", 0)
	_ = opening.Set("cheese", 5)
	closing, _ := entities.NewInventoryCount(ClosingCount, PizzaStore, Day(8))
	_ = closing.Set("flour", 12.5)
	_ = closing.Set("water", 0)
	_ = closing.Set("cheese", 2)
	if err := catalog.LoadCounts([]*entities.InventoryCount{opening, closing}); err != nil {
		panic(err)
	}

	receipt, _ := entities.NewStockMovement(PizzaStore, "flour", entities.Receipt, 5, Day(2))
	waste, _ := entities.NewStockMovement(PizzaStore, "cheese", entities.Waste, 0.5, Day(6))
	if err := catalog.LoadMovements([]*entities.StockMovement{receipt, waste}); err != nil {
		panic(err)
	}

	return catalog
}
