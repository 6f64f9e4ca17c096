package propagation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

const tolerance = 1e-6

func assertCost(t *testing.T, label string, got decimal.Decimal, want float64) {
	t.Helper()
	if math.Abs(got.InexactFloat64()-want) > tolerance {
		t.Errorf("%s: expected %.6f, got %s", label, want, got)
	}
}

func indexOf(order []entities.RecipeID, id entities.RecipeID) int {
	for i, candidate := range order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// committedPizzaScenario returns the pizza catalog with its current costs stored
func committedPizzaScenario(t *testing.T) (*memory.Catalog, *Propagator) {
	t.Helper()
	catalog := testhelpers.BuildPizzaScenario()
	propagator := NewPropagator(catalog)
	ctx := context.Background()

	result, err := propagator.RecalculateAll(ctx)
	if err != nil {
		t.Fatalf("RecalculateAll failed: %v", err)
	}
	if err := propagator.Commit(ctx, result, catalog); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	return catalog, propagator
}

func TestPropagator_FlourPriceChange(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	ctx := context.Background()

	testhelpers.SetItemPrice(catalog, "flour", "0.60")

	result, err := propagator.OnSourceChanged(ctx, entities.InventoryItemRef{ID: "flour"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}

	if len(result.Affected) != 2 {
		t.Fatalf("Expected dough and pizza affected, got %v", result.Affected)
	}
	if indexOf(result.Order, "dough") > indexOf(result.Order, "pizza") {
		t.Errorf("Expected dough recomputed before pizza, got %v", result.Order)
	}
	if len(result.Layers) != 2 {
		t.Errorf("Expected 2 layers, got %v", result.Layers)
	}

	assertCost(t, "dough", result.Updates["dough"], 1.20)
	assertCost(t, "pizza", result.Updates["pizza"], 0.12+1.0/0.95)
	assertCost(t, "previous pizza", result.PreviousCosts["pizza"], 0.10+1.0/0.95)
	if result.HasFailures() {
		t.Errorf("Unexpected failures: %v", result.Failures)
	}

	// Nothing is written until Commit
	stored, _ := catalog.GetRecipe("dough")
	assertCost(t, "stored dough before commit", stored.ComputedCost, 1.00)

	if err := propagator.Commit(ctx, result, catalog); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	stored, _ = catalog.GetRecipe("pizza")
	assertCost(t, "stored pizza", stored.ComputedCost, 0.12+1.0/0.95)
}

func TestPropagator_Idempotent(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	ctx := context.Background()

	result, err := propagator.OnSourceChanged(ctx, entities.InventoryItemRef{ID: "flour"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}
	if len(result.Updates) != 0 {
		t.Errorf("Expected no updates without a change, got %v", result.Updates)
	}
	if len(result.Unchanged) != 2 {
		t.Errorf("Expected 2 unchanged recipes, got %v", result.Unchanged)
	}
	if err := propagator.Commit(ctx, result, catalog); err != nil {
		t.Errorf("Commit of an empty result should be a no-op: %v", err)
	}
}

func TestPropagator_UnrelatedItem(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)
	testhelpers.AddItem(catalog, "basil", "Basil", "oz", "1.00", 100)

	result, err := propagator.OnSourceChanged(context.Background(), entities.InventoryItemRef{ID: "basil"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}
	if len(result.Affected) != 0 || len(result.Order) != 0 {
		t.Errorf("Expected nothing affected, got %v", result.Affected)
	}
}

func TestPropagator_RecipeSource(t *testing.T) {
	catalog, propagator := committedPizzaScenario(t)

	// Doubling the flour in the dough changes dough and pizza
	testhelpers.AddRecipe(catalog, "dough", "Pizza Dough", 10, "each", true,
		testhelpers.ItemLine("flour", 4, "lb"),
		testhelpers.ItemLine("water", 1, "lb"),
	)

	result, err := propagator.OnSourceChanged(context.Background(), entities.RecipeRef{ID: "dough"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}
	if result.Source.String() != "recipe:dough" {
		t.Errorf("Expected source recipe:dough, got %s", result.Source)
	}
	assertCost(t, "dough", result.Updates["dough"], 2.00)
	assertCost(t, "pizza", result.Updates["pizza"], 0.20+1.0/0.95)

	pizzaOnly, err := propagator.OnSourceChanged(context.Background(), entities.RecipeRef{ID: "pizza"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}
	if len(pizzaOnly.Affected) != 1 || pizzaOnly.Affected[0] != "pizza" {
		t.Errorf("Expected only pizza affected, got %v", pizzaOnly.Affected)
	}
}

func TestPropagator_UnknownSource(t *testing.T) {
	_, propagator := committedPizzaScenario(t)
	ctx := context.Background()

	if _, err := propagator.OnSourceChanged(ctx, entities.InventoryItemRef{ID: "saffron"}); !errors.Is(err, entities.ErrInventoryItemNotFound) {
		t.Errorf("Expected ErrInventoryItemNotFound, got %v", err)
	}
	if _, err := propagator.OnSourceChanged(ctx, entities.RecipeRef{ID: "paella"}); !errors.Is(err, entities.ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound, got %v", err)
	}
}

func TestPropagator_FailureIsolation(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	testhelpers.AddItem(catalog, "tomato", "Tomato", "lb", "2.00", 0)
	testhelpers.AddRecipe(catalog, "sauce", "Sauce", 1, "qt", true,
		testhelpers.ItemLine("tomato", 2, "lb"),
	)
	testhelpers.AddRecipe(catalog, "marinara", "Marinara Pizza", 1, "each", false,
		testhelpers.RecipeLine("dough", 1, "each"),
		testhelpers.RecipeLine("sauce", 4, "floz"),
	)

	result, err := NewPropagator(catalog).RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll failed: %v", err)
	}

	if !errors.Is(result.Failures["sauce"], entities.ErrInvalidYieldPercent) {
		t.Errorf("Expected sauce to fail on yield, got %v", result.Failures["sauce"])
	}
	var dependency *entities.DependencyFailedError
	if !errors.As(result.Failures["marinara"], &dependency) || dependency.Dependency != "sauce" {
		t.Fatalf("Expected marinara to be skipped because of sauce, got %v", result.Failures["marinara"])
	}
	if !errors.Is(result.Failures["marinara"], entities.ErrInvalidYieldPercent) {
		t.Errorf("Expected dependency failure to carry the upstream cause")
	}

	// Independent branches still recompute
	assertCost(t, "dough", result.Updates["dough"], 1.00)
	assertCost(t, "pizza", result.Updates["pizza"], 0.10+1.0/0.95)
	if len(result.Failures) != 2 {
		t.Errorf("Expected 2 failures, got %v", result.Failures)
	}
}

func TestPropagator_CycleLeftovers(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	testhelpers.AddRecipe(catalog, "a", "A", 1, "each", true,
		testhelpers.ItemLine("flour", 1, "lb"),
		testhelpers.RecipeLine("b", 1, "each"),
	)
	testhelpers.AddRecipe(catalog, "b", "B", 1, "each", true, testhelpers.RecipeLine("a", 1, "each"))
	testhelpers.AddRecipe(catalog, "c", "C", 1, "each", false, testhelpers.RecipeLine("a", 1, "each"))

	result, err := NewPropagator(catalog).OnSourceChanged(context.Background(), entities.InventoryItemRef{ID: "flour"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}

	for _, id := range []entities.RecipeID{"a", "b", "c"} {
		if !errors.Is(result.Failures[id], entities.ErrCyclicRecipeReference) {
			t.Errorf("Expected %s to fail with a cycle, got %v", id, result.Failures[id])
		}
	}
	for _, layer := range result.Layers {
		for _, id := range layer {
			if id == "a" || id == "b" || id == "c" {
				t.Errorf("Cyclic recipe %s should not be layered", id)
			}
		}
	}
	assertCost(t, "dough", result.Updates["dough"], 1.00)
	if _, ok := result.Updates["pizza"]; !ok {
		t.Errorf("Expected pizza to recompute despite the cycle elsewhere")
	}
}

func TestPropagator_FanOutConcurrency(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	for i := 0; i < 25; i++ {
		id := entities.RecipeID("special-" + string(rune('a'+i)))
		testhelpers.AddRecipe(catalog, id, string(id), 1, "each", false,
			testhelpers.RecipeLine("dough", 1, "each"),
			testhelpers.ItemLine("flour", float64(i), "oz"),
		)
	}

	config := DefaultConfig()
	config.MaxConcurrency = 4
	result, err := NewPropagatorWithConfig(catalog, config).OnSourceChanged(context.Background(), entities.InventoryItemRef{ID: "flour"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}
	if len(result.Affected) != 27 {
		t.Fatalf("Expected 27 affected recipes, got %d", len(result.Affected))
	}
	if result.HasFailures() {
		t.Fatalf("Unexpected failures: %v", result.Failures)
	}
	// special-a has no flour of its own and costs one dough ball
	assertCost(t, "special-a", result.Updates["special-a"], 0.10)
	// special-y adds 24 oz = 1.5 lb of flour
	assertCost(t, "special-y", result.Updates["special-y"], 0.10+0.75)
}

func TestPropagator_ConcurrentLayerFailures(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	testhelpers.AddItem(catalog, "spoiled", "Spoiled Greens", "lb", "1.00", 0)
	const width = 200
	for i := 0; i < width; i++ {
		wilted := entities.RecipeID(fmt.Sprintf("wilted-%03d", i))
		testhelpers.AddRecipe(catalog, wilted, string(wilted), 1, "each", true,
			testhelpers.RecipeLine("dough", 1, "each"),
			testhelpers.ItemLine("spoiled", 1, "lb"),
		)
		topped := entities.RecipeID(fmt.Sprintf("topped-%03d", i))
		testhelpers.AddRecipe(catalog, topped, string(topped), 1, "each", false,
			testhelpers.RecipeLine(wilted, 1, "each"),
			testhelpers.RecipeLine("dough", 1, "each"),
		)
		plain := entities.RecipeID(fmt.Sprintf("plain-%03d", i))
		testhelpers.AddRecipe(catalog, plain, string(plain), 1, "each", false,
			testhelpers.RecipeLine("pizza", 1, "each"),
		)
	}

	config := DefaultConfig()
	config.MaxConcurrency = 8
	result, err := NewPropagatorWithConfig(catalog, config).OnSourceChanged(context.Background(), entities.InventoryItemRef{ID: "flour"})
	if err != nil {
		t.Fatalf("OnSourceChanged failed: %v", err)
	}

	if len(result.Failures) != 2*width {
		t.Fatalf("Expected %d failures, got %d", 2*width, len(result.Failures))
	}
	for i := 0; i < width; i++ {
		wilted := entities.RecipeID(fmt.Sprintf("wilted-%03d", i))
		if !errors.Is(result.Failures[wilted], entities.ErrInvalidYieldPercent) {
			t.Fatalf("Expected %s to fail on yield, got %v", wilted, result.Failures[wilted])
		}
		topped := entities.RecipeID(fmt.Sprintf("topped-%03d", i))
		var dependency *entities.DependencyFailedError
		if !errors.As(result.Failures[topped], &dependency) || dependency.Dependency != wilted {
			t.Fatalf("Expected %s to be skipped because of %s, got %v", topped, wilted, result.Failures[topped])
		}
		plain := entities.RecipeID(fmt.Sprintf("plain-%03d", i))
		assertCost(t, string(plain), result.Updates[plain], 0.10+1.0/0.95)
	}
	assertCost(t, "dough", result.Updates["dough"], 1.00)
}

func TestPropagator_CommitFailure(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	propagator := NewPropagator(catalog)
	ctx := context.Background()

	result, err := propagator.RecalculateAll(ctx)
	if err != nil {
		t.Fatalf("RecalculateAll failed: %v", err)
	}
	result.Updates["ghost"] = decimal.NewFromInt(1)

	if err := propagator.Commit(ctx, result, catalog); !errors.Is(err, entities.ErrRecipeNotFound) {
		t.Fatalf("Expected ErrRecipeNotFound, got %v", err)
	}
	// The whole batch is rejected
	stored, _ := catalog.GetRecipe("dough")
	if !stored.ComputedCost.IsZero() {
		t.Errorf("Expected dough cost to stay unwritten, got %s", stored.ComputedCost)
	}
}
