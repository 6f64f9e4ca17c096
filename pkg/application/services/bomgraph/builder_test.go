package bomgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	testhelpers "github.com/vsinha/recipecost/pkg/infrastructure/testing"
)

func TestBuilder_BuildPizza(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	builder := NewBuilder(catalog, catalog)

	graph, err := builder.Build(context.Background(), "pizza")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if graph.Root() != "pizza" {
		t.Errorf("Expected root pizza, got %s", graph.Root())
	}
	if graph.RecipeCount() != 2 {
		t.Errorf("Expected 2 recipes, got %d", graph.RecipeCount())
	}
	if graph.Depth() != 2 {
		t.Errorf("Expected depth 2, got %d", graph.Depth())
	}
	if len(graph.ItemIDs()) != 3 {
		t.Errorf("Expected 3 items, got %v", graph.ItemIDs())
	}

	order := graph.PostOrder()
	if len(order) != 2 || order[0] != "dough" || order[1] != "pizza" {
		t.Errorf("Expected post-order [dough pizza], got %v", order)
	}

	edges := graph.Children("pizza")
	if len(edges) != 2 {
		t.Fatalf("Expected 2 pizza edges, got %d", len(edges))
	}
	if edges[1].Ref.String() != "item:cheese" || edges[1].Quantity != 4 || edges[1].Unit != "oz" {
		t.Errorf("Unexpected cheese edge: %+v", edges[1])
	}
	if graph.Children("missing") != nil {
		t.Errorf("Expected nil children for a recipe outside the graph")
	}
}

func TestBuilder_SharedSubRecipeAppearsOnce(t *testing.T) {
	catalog := testhelpers.NewStandardCatalog()
	testhelpers.AddItem(catalog, "butter", "Butter", "lb", "3.00", 100)
	testhelpers.AddRecipe(catalog, "roux", "Roux", 1, "cup", true,
		testhelpers.ItemLine("butter", 4, "oz"),
	)
	testhelpers.AddRecipe(catalog, "bechamel", "Bechamel", 4, "cup", true,
		testhelpers.RecipeLine("roux", 1, "cup"),
	)
	testhelpers.AddRecipe(catalog, "lasagna", "Lasagna", 8, "each", false,
		testhelpers.RecipeLine("bechamel", 2, "cup"),
		testhelpers.RecipeLine("roux", 0.5, "cup"),
	)

	graph, err := NewBuilder(catalog, catalog).Build(context.Background(), "lasagna")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if graph.RecipeCount() != 3 {
		t.Errorf("Expected 3 distinct recipes, got %d", graph.RecipeCount())
	}
	if graph.Depth() != 3 {
		t.Errorf("Expected depth 3, got %d", graph.Depth())
	}
	order := graph.PostOrder()
	if order[len(order)-1] != "lasagna" {
		t.Errorf("Expected root last, got %v", order)
	}
	position := make(map[entities.RecipeID]int)
	for i, id := range order {
		position[id] = i
	}
	if position["roux"] > position["bechamel"] {
		t.Errorf("Expected roux before bechamel, got %v", order)
	}
}

func TestBuilder_Cycles(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func() *Builder
		root     entities.RecipeID
		expected []entities.RecipeID
	}{
		{
			name: "two recipe cycle",
			setup: func() *Builder {
				catalog := testhelpers.NewStandardCatalog()
				testhelpers.AddRecipe(catalog, "a", "A", 1, "each", true, testhelpers.RecipeLine("b", 1, "each"))
				testhelpers.AddRecipe(catalog, "b", "B", 1, "each", true, testhelpers.RecipeLine("a", 1, "each"))
				return NewBuilder(catalog, catalog)
			},
			root:     "a",
			expected: []entities.RecipeID{"a", "b", "a"},
		},
		{
			name: "self reference",
			setup: func() *Builder {
				catalog := testhelpers.NewStandardCatalog()
				testhelpers.AddRecipe(catalog, "stock", "Stock", 1, "l", true, testhelpers.RecipeLine("stock", 0.1, "l"))
				return NewBuilder(catalog, catalog)
			},
			root:     "stock",
			expected: []entities.RecipeID{"stock", "stock"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.setup().Build(context.Background(), tc.root)
			if !errors.Is(err, entities.ErrCyclicRecipeReference) {
				t.Fatalf("Expected ErrCyclicRecipeReference, got %v", err)
			}
			var cycle *entities.CyclicRecipeReferenceError
			if !errors.As(err, &cycle) {
				t.Fatalf("Expected CyclicRecipeReferenceError, got %T", err)
			}
			if len(cycle.Cycle) != len(tc.expected) {
				t.Fatalf("Expected cycle %v, got %v", tc.expected, cycle.Cycle)
			}
			for i := range tc.expected {
				if cycle.Cycle[i] != tc.expected[i] {
					t.Fatalf("Expected cycle %v, got %v", tc.expected, cycle.Cycle)
				}
			}
		})
	}
}

func TestBuilder_DanglingReferences(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	testhelpers.AddRecipe(catalog, "calzone", "Calzone", 1, "each", false,
		testhelpers.RecipeLine("dough", 1, "each"),
		testhelpers.ItemLine("ricotta", 3, "oz"),
	)
	testhelpers.AddRecipe(catalog, "stromboli", "Stromboli", 1, "each", false,
		testhelpers.RecipeLine("filling", 1, "each"),
	)
	builder := NewBuilder(catalog, catalog)

	testCases := []struct {
		root entities.RecipeID
		ref  string
	}{
		{"calzone", "item:ricotta"},
		{"stromboli", "recipe:filling"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.root), func(t *testing.T) {
			_, err := builder.Build(context.Background(), tc.root)
			var dangling *entities.DanglingComponentReferenceError
			if !errors.As(err, &dangling) {
				t.Fatalf("Expected DanglingComponentReferenceError, got %v", err)
			}
			if dangling.RecipeID != tc.root || dangling.Ref.String() != tc.ref {
				t.Errorf("Expected %s in %s, got %s in %s", tc.ref, tc.root, dangling.Ref, dangling.RecipeID)
			}
		})
	}

	if _, err := builder.Build(context.Background(), "missing"); !errors.Is(err, entities.ErrRecipeNotFound) {
		t.Errorf("Expected ErrRecipeNotFound for a missing root, got %v", err)
	}
}

func TestBuilder_ValidateProposed(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	builder := NewBuilder(catalog, catalog)

	stored, _ := catalog.GetRecipe("dough")
	proposed := stored.Clone()
	if err := proposed.AddComponent(entities.RecipeRef{ID: "pizza"}, 1, "each"); err != nil {
		t.Fatalf("Failed to add component: %v", err)
	}

	_, err := builder.ValidateProposed(context.Background(), proposed)
	if !errors.Is(err, entities.ErrCyclicRecipeReference) {
		t.Fatalf("Expected proposed dough to be rejected as cyclic, got %v", err)
	}

	// The dry run leaves the stored recipe untouched
	current, _ := catalog.GetRecipe("dough")
	if len(current.Components) != 2 {
		t.Errorf("Expected stored dough to keep 2 components, got %d", len(current.Components))
	}
	if _, err := builder.Build(context.Background(), "pizza"); err != nil {
		t.Errorf("Expected stored catalog to still build: %v", err)
	}

	acceptable := stored.Clone()
	acceptable.Components[0].Quantity = 3
	graph, err := builder.ValidateProposed(context.Background(), acceptable)
	if err != nil {
		t.Fatalf("Expected acyclic proposal to be accepted: %v", err)
	}
	node, _ := graph.Recipe("dough")
	if node.Edges[0].Quantity != 3 {
		t.Errorf("Expected proposal to be used in the graph, got %g", node.Edges[0].Quantity)
	}
}

func TestBuilder_ContextCancelled(t *testing.T) {
	catalog := testhelpers.BuildPizzaScenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBuilder(catalog, catalog).Build(ctx, "pizza"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
