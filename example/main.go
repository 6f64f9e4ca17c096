package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/application/services/propagation"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/services"
	"github.com/vsinha/recipecost/pkg/infrastructure/events"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	catalog := memory.NewCatalog()
	if err := setupPizzeria(catalog); err != nil {
		fmt.Printf("❌ Setup failed: %v\n", err)
		return
	}

	calculator := costing.NewCalculator(catalog)
	breakdown, err := calculator.ComputeCost(ctx, "pizza")
	if err != nil {
		fmt.Printf("❌ Costing failed: %v\n", err)
		return
	}

	fmt.Println("🍕 Cheese Pizza")
	for _, line := range breakdown.Lines {
		fmt.Printf("  %d. %-14s %6g %-4s $%s\n", line.Position, line.Ref, line.Quantity, line.Unit, line.Cost.StringFixed(4))
	}
	fmt.Printf("  Total: $%s per %s\n\n", breakdown.PerYieldUnit.StringFixed(4), breakdown.YieldUnit)

	// Price changes flow through the event store; the handler propagates and commits
	store := events.NewInMemoryEventStore()
	handler := propagation.NewChangeHandler(ctx, propagation.NewPropagator(catalog), catalog, store)
	if err := handler.Subscribe(store); err != nil {
		fmt.Printf("❌ Subscribe failed: %v\n", err)
		return
	}

	flour, _ := catalog.GetInventoryItem("flour")
	oldPrice := flour.PricePerBaseUnit
	units := services.NewUnitNormalizer(catalog)
	newPrice, err := units.PricePerBaseUnit(decimal.RequireFromString("0.60"), "lb")
	if err != nil {
		fmt.Printf("❌ Price conversion failed: %v\n", err)
		return
	}
	flour.PricePerBaseUnit = newPrice
	catalog.AddItem(*flour)

	fmt.Println("📈 Flour goes from $0.50/lb to $0.60/lb...")
	if err := store.AppendEvent(events.ItemStream("flour"), events.NewInventoryItemPriceChangedEvent("flour", oldPrice, newPrice)); err != nil {
		fmt.Printf("❌ Propagation failed: %v\n", err)
		return
	}

	all, _ := store.ReadAllEvents(0)
	for _, event := range all {
		recalculated, ok := event.Data().(events.RecipeCostsRecalculated)
		if !ok {
			continue
		}
		fmt.Printf("🔄 Run %s from %s\n", recalculated.RunID, recalculated.Source)
		for _, id := range []entities.RecipeID{"dough", "pizza"} {
			if cost, ok := recalculated.Updates[id]; ok {
				fmt.Printf("  %-6s $%s per batch\n", id, cost.StringFixed(4))
			}
		}
	}
}

// setupPizzeria builds a dough sub-recipe and a pizza that uses it
func setupPizzeria(catalog *memory.Catalog) error {
	if err := catalog.LoadUnits(services.StandardUnits()); err != nil {
		return err
	}
	if err := catalog.LoadConversions(services.StandardConversions()); err != nil {
		return err
	}

	units := services.NewUnitNormalizer(catalog)
	prices := []struct {
		id    entities.ItemID
		name  string
		price string
		yield float64
	}{
		{"flour", "Flour", "0.50", 100},
		{"water", "Water", "0", 100},
		{"cheese", "Mozzarella", "4.00", 95},
	}
	for _, p := range prices {
		perBase, err := units.PricePerBaseUnit(decimal.RequireFromString(p.price), "lb")
		if err != nil {
			return err
		}
		item, err := entities.NewInventoryItem(p.id, p.name, perBase, "lb", p.yield)
		if err != nil {
			return err
		}
		catalog.AddItem(*item)
	}

	dough, err := entities.NewRecipe("dough", "Pizza Dough", 10, "each")
	if err != nil {
		return err
	}
	dough.IsSubRecipe = true
	if err := dough.AddComponent(entities.InventoryItemRef{ID: "flour"}, 2, "lb"); err != nil {
		return err
	}
	if err := dough.AddComponent(entities.InventoryItemRef{ID: "water"}, 1, "lb"); err != nil {
		return err
	}
	catalog.AddRecipe(dough)

	pizza, err := entities.NewRecipe("pizza", "Cheese Pizza", 1, "each")
	if err != nil {
		return err
	}
	if err := pizza.AddComponent(entities.RecipeRef{ID: "dough"}, 1, "each"); err != nil {
		return err
	}
	if err := pizza.AddComponent(entities.InventoryItemRef{ID: "cheese"}, 4, "oz"); err != nil {
		return err
	}
	catalog.AddRecipe(pizza)

	return nil
}
