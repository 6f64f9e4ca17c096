package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ImportLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	source := testhelpers.BuildPizzaVarianceScenario()

	if err := store.ImportCatalog(ctx, "acme", source); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}

	loaded, err := store.LoadCatalog(ctx, "acme")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}

	if loaded.Stats() != source.Stats() {
		t.Errorf("Expected stats %+v, got %+v", source.Stats(), loaded.Stats())
	}

	flour, err := loaded.GetInventoryItem("flour")
	if err != nil {
		t.Fatalf("Failed to get flour: %v", err)
	}
	original, _ := source.GetInventoryItem("flour")
	if !flour.PricePerBaseUnit.Equal(original.PricePerBaseUnit) {
		t.Errorf("Expected price %s, got %s", original.PricePerBaseUnit, flour.PricePerBaseUnit)
	}

	pizza, err := loaded.GetRecipe("pizza")
	if err != nil {
		t.Fatalf("Failed to get pizza: %v", err)
	}
	if len(pizza.Components) != 2 {
		t.Fatalf("Expected 2 pizza components, got %d", len(pizza.Components))
	}
	if ref, ok := pizza.Components[0].Ref.(entities.RecipeRef); !ok || ref.ID != "dough" {
		t.Errorf("Expected dough as the first component, got %v", pizza.Components[0].Ref)
	}

	menu, err := loaded.GetMenuItemBySKU(testhelpers.PizzaSKU)
	if err != nil {
		t.Fatalf("Failed to get menu item: %v", err)
	}
	if !menu.HasRecipe() || *menu.RecipeID != "pizza" {
		t.Errorf("Expected menu item to keep its recipe link")
	}

	closing, err := loaded.GetCount(testhelpers.ClosingCount)
	if err != nil {
		t.Fatalf("Failed to get closing count: %v", err)
	}
	if !closing.TakenAt.Equal(testhelpers.Day(8)) || closing.Quantity("flour") != 12.5 {
		t.Errorf("Unexpected closing count: %+v", closing)
	}

	sales, err := loaded.GetSales(testhelpers.PizzaStore, testhelpers.Day(1), testhelpers.Day(8))
	if err != nil {
		t.Fatalf("GetSales failed: %v", err)
	}
	if len(sales) != 2 {
		t.Errorf("Expected 2 sales in the window, got %d", len(sales))
	}

	movements, err := loaded.GetMovements(testhelpers.PizzaStore, testhelpers.Day(1), testhelpers.Day(8))
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Errorf("Expected 2 movements, got %d", len(movements))
	}

	want, err := costing.NewCalculator(source).ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("ComputeCost on source failed: %v", err)
	}
	got, err := costing.NewCalculator(loaded).ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("ComputeCost on loaded catalog failed: %v", err)
	}
	if !got.Total.Equal(want.Total) {
		t.Errorf("Expected cost %s after round trip, got %s", want.Total, got.Total)
	}
}

func TestStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.ImportCatalog(ctx, "acme", testhelpers.BuildPizzaScenario()); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}
	other := testhelpers.NewStandardCatalog()
	testhelpers.AddItem(other, "salt", "Salt", "g", "0.01", 100)
	if err := store.ImportCatalog(ctx, "globex", other); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}

	acme, err := store.LoadCatalog(ctx, "acme")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if _, err := acme.GetInventoryItem("salt"); !errors.Is(err, entities.ErrInventoryItemNotFound) {
		t.Errorf("Expected salt to stay in its own tenant, got %v", err)
	}

	// Re-importing replaces a tenant wholesale
	if err := store.ImportCatalog(ctx, "acme", other); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}
	acme, err = store.LoadCatalog(ctx, "acme")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if stats := acme.Stats(); stats.Recipes != 0 || stats.Items != 1 {
		t.Errorf("Expected replaced tenant, got %+v", stats)
	}

	empty, err := store.LoadCatalog(ctx, "initech")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if stats := empty.Stats(); stats != (memory.Stats{}) {
		t.Errorf("Expected empty catalog for unknown tenant, got %+v", stats)
	}
}

func TestCostWriter_SaveRecipeCosts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if err := store.ImportCatalog(ctx, "acme", testhelpers.BuildPizzaScenario()); err != nil {
		t.Fatalf("ImportCatalog failed: %v", err)
	}
	writer := store.CostWriter("acme")

	err := writer.SaveRecipeCosts(ctx, map[entities.RecipeID]decimal.Decimal{
		"dough": decimal.RequireFromString("1.20"),
		"pizza": decimal.RequireFromString("1.17"),
	})
	if err != nil {
		t.Fatalf("SaveRecipeCosts failed: %v", err)
	}

	loaded, err := store.LoadCatalog(ctx, "acme")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	dough, _ := loaded.GetRecipe("dough")
	if dough.ComputedCost.String() != "1.2" {
		t.Errorf("Expected dough cost 1.2, got %s", dough.ComputedCost)
	}

	// One unknown id rolls the whole batch back
	err = writer.SaveRecipeCosts(ctx, map[entities.RecipeID]decimal.Decimal{
		"dough": decimal.RequireFromString("9.99"),
		"ghost": decimal.RequireFromString("1.00"),
	})
	if !errors.Is(err, entities.ErrRecipeNotFound) {
		t.Fatalf("Expected ErrRecipeNotFound, got %v", err)
	}
	loaded, err = store.LoadCatalog(ctx, "acme")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	dough, _ = loaded.GetRecipe("dough")
	if dough.ComputedCost.String() != "1.2" {
		t.Errorf("Expected rollback to keep 1.2, got %s", dough.ComputedCost)
	}

	// Writes are scoped to the writer's tenant
	if err := store.CostWriter("globex").SaveRecipeCosts(ctx, map[entities.RecipeID]decimal.Decimal{
		"dough": decimal.RequireFromString("5"),
	}); !errors.Is(err, entities.ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound for another tenant, got %v", err)
	}

	if err := writer.SaveRecipeCosts(ctx, nil); err != nil {
		t.Errorf("Expected empty batch to be a no-op, got %v", err)
	}
}
