package costing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

const tolerance = 1e-6

func assertCost(t *testing.T, label string, got decimal.Decimal, want float64) {
	t.Helper()
	if math.Abs(got.InexactFloat64()-want) > tolerance {
		t.Errorf("%s: expected %.6f, got %s", label, want, got)
	}
}

func TestCalculator_PizzaScenario(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	calculator := NewCalculator(catalog)
	ctx := context.Background()

	dough, err := calculator.ComputeCost(ctx, "dough")
	if err != nil {
		t.Fatalf("Failed to cost dough: %v", err)
	}
	assertCost(t, "dough total", dough.Total, 1.00)
	assertCost(t, "dough per each", dough.PerYieldUnit, 0.10)
	if len(dough.Lines) != 2 {
		t.Fatalf("Expected 2 dough lines, got %d", len(dough.Lines))
	}
	assertCost(t, "flour line", dough.Lines[0].Cost, 1.00)
	assertCost(t, "water line", dough.Lines[1].Cost, 0)

	pizza, err := calculator.ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("Failed to cost pizza: %v", err)
	}
	// 0.25 lb cheese at 95% yield costs 1.00/0.95
	assertCost(t, "pizza total", pizza.Total, 0.10+1.0/0.95)
	assertCost(t, "pizza per each", pizza.PerYieldUnit, 1.152632)
	assertCost(t, "dough line", pizza.Lines[0].Cost, 0.10)

	cheese := pizza.Lines[1]
	if math.Abs(cheese.BaseQuantity-113.3980925) > tolerance {
		t.Errorf("Expected 113.398 g of cheese, got %g", cheese.BaseQuantity)
	}
	if math.Abs(cheese.YieldAdjustedQuantity-113.3980925/0.95) > tolerance {
		t.Errorf("Expected yield adjusted %g g, got %g", 113.3980925/0.95, cheese.YieldAdjustedQuantity)
	}
}

func TestCalculator_Linearity(t *testing.T) {
	ctx := context.Background()
	base := testhelpers.BuildPizzaScenario()
	baseCost, err := NewCalculator(base).ComputeCost(ctx, "dough")
	if err != nil {
		t.Fatalf("Failed to cost dough: %v", err)
	}

	for _, factor := range []float64{0.5, 2, 3.75} {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "dough", "Pizza Dough", 10, "each", true,
			testhelpers.ItemLine("flour", 2*factor, "lb"),
			testhelpers.ItemLine("water", 1*factor, "lb"),
		)
		scaled, err := NewCalculator(catalog).ComputeCost(ctx, "dough")
		if err != nil {
			t.Fatalf("Failed to cost scaled dough: %v", err)
		}
		assertCost(t, "scaled total", scaled.Total, baseCost.Total.InexactFloat64()*factor)
	}
}

func TestCalculator_YieldMonotonicity(t *testing.T) {
	ctx := context.Background()
	previous := decimal.Zero

	for _, yield := range []float64{100, 95, 80, 50, 10} {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddItem(catalog, "cheese", "Mozzarella", "lb", "4.00", yield)

		pizza, err := NewCalculator(catalog).ComputeCost(ctx, "pizza")
		if err != nil {
			t.Fatalf("Failed to cost pizza at %g%% yield: %v", yield, err)
		}
		if !pizza.Total.GreaterThan(previous) {
			t.Errorf("Expected cost at %g%% yield (%s) to exceed %s", yield, pizza.Total, previous)
		}
		previous = pizza.Total
	}
}

func TestCalculator_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("zero quantity line", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "plain", "Plain", 1, "each", false,
			testhelpers.ItemLine("cheese", 0, "oz"),
		)
		result, err := NewCalculator(catalog).ComputeCost(ctx, "plain")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Total.IsZero() {
			t.Errorf("Expected zero cost, got %s", result.Total)
		}
	})

	t.Run("empty recipe", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "air", "Air", 1, "each", false)
		result, err := NewCalculator(catalog).ComputeCost(ctx, "air")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Total.IsZero() || !result.PerYieldUnit.IsZero() {
			t.Errorf("Expected zero cost, got %s / %s", result.Total, result.PerYieldUnit)
		}
	})

	t.Run("zero yield quantity", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		catalog.AddRecipe(&entities.Recipe{
			ID:        "broken",
			Name:      "Broken",
			YieldQty:  0,
			YieldUnit: "each",
			Components: []entities.RecipeComponent{
				{Position: 1, Ref: entities.InventoryItemRef{ID: "flour"}, Quantity: 1, Unit: "lb"},
			},
		})
		_, err := NewCalculator(catalog).ComputeCost(ctx, "broken")
		if !errors.Is(err, entities.ErrNumericOverflow) {
			t.Errorf("Expected ErrNumericOverflow, got %v", err)
		}
	})

	t.Run("zero yield percent", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddItem(catalog, "cheese", "Mozzarella", "lb", "4.00", 0)
		_, err := NewCalculator(catalog).ComputeCost(ctx, "pizza")
		var invalid *entities.InvalidYieldPercentError
		if !errors.As(err, &invalid) || invalid.ItemID != "cheese" {
			t.Errorf("Expected InvalidYieldPercentError for cheese, got %v", err)
		}
	})

	t.Run("incompatible units", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "soup", "Soup", 1, "l", false,
			testhelpers.ItemLine("flour", 250, "ml"),
		)
		_, err := NewCalculator(catalog).ComputeCost(ctx, "soup")
		if !errors.Is(err, entities.ErrIncompatibleUnitKinds) {
			t.Errorf("Expected ErrIncompatibleUnitKinds, got %v", err)
		}
	})

	t.Run("quantity overflow", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "silo", "Silo", 1, "each", false,
			testhelpers.ItemLine("flour", 1e13, "kg"),
		)
		_, err := NewCalculator(catalog).ComputeCost(ctx, "silo")
		if !errors.Is(err, entities.ErrNumericOverflow) {
			t.Errorf("Expected ErrNumericOverflow, got %v", err)
		}
	})

	t.Run("nesting too deep", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		calculator := NewCalculatorWithConfig(catalog, Config{MaxDepth: 1})
		if _, err := calculator.ComputeCost(ctx, "dough"); err != nil {
			t.Fatalf("Expected single level recipe to cost: %v", err)
		}
		if _, err := calculator.ComputeCost(ctx, "pizza"); !errors.Is(err, entities.ErrNumericOverflow) {
			t.Errorf("Expected ErrNumericOverflow for depth 2, got %v", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		catalog := testhelpers.BuildPizzaScenario()
		testhelpers.AddRecipe(catalog, "dough", "Pizza Dough", 10, "each", true,
			testhelpers.ItemLine("flour", 2, "lb"),
			testhelpers.RecipeLine("pizza", 1, "each"),
		)
		_, err := NewCalculator(catalog).ComputeCost(ctx, "pizza")
		if !errors.Is(err, entities.ErrCyclicRecipeReference) {
			t.Errorf("Expected ErrCyclicRecipeReference, got %v", err)
		}
	})
}

func TestCalculator_SubRecipeUnitConversion(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	// A dozen dough balls costs twelve times one ball
	testhelpers.AddRecipe(catalog, "party", "Party Pack", 1, "each", false,
		testhelpers.RecipeLine("dough", 1, "dozen"),
	)

	result, err := NewCalculator(catalog).ComputeCost(context.Background(), "party")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	assertCost(t, "party total", result.Total, 1.20)
}

func TestSession_Memoizes(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	calculator := NewCalculator(catalog)
	session := calculator.NewSession()
	ctx := context.Background()

	if _, err := session.ComputeCost(ctx, "dough"); err != nil {
		t.Fatalf("Failed to cost dough: %v", err)
	}

	// Later price changes are invisible within the session
	testhelpers.SetItemPrice(catalog, "flour", "0.60")
	pizza, err := session.ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("Failed to cost pizza: %v", err)
	}
	assertCost(t, "memoized dough line", pizza.Lines[0].Cost, 0.10)

	fresh, err := calculator.ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("Failed to cost pizza: %v", err)
	}
	assertCost(t, "fresh dough line", fresh.Lines[0].Cost, 0.12)

	seeded := calculator.NewSession()
	seeded.Seed(&CostBreakdown{RecipeID: "dough", YieldQty: 10, YieldUnit: "each", Total: decimal.NewFromInt(5), PerYieldUnit: decimal.RequireFromString("0.5")})
	pizza, err = seeded.ComputeCost(ctx, "pizza")
	if err != nil {
		t.Fatalf("Failed to cost pizza: %v", err)
	}
	assertCost(t, "seeded dough line", pizza.Lines[0].Cost, 0.50)
}
