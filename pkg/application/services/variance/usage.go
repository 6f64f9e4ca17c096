package variance

import (
	"context"
	"fmt"
	"math"

	"github.com/vsinha/recipecost/pkg/application/services/bomgraph"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/services"
)

// explosion is the raw item usage of one batch of a recipe, in each item's natural unit
// and already divided by the item's yield
type explosion struct {
	recipe      *entities.Recipe
	perBatch    map[entities.ItemID]float64
	placeholder bool
}

// exploder walks the same BOM graphs as the cost calculator but collects quantities.
// Results are cached for the lifetime of one report.
type exploder struct {
	builder *bomgraph.Builder
	units   *services.UnitNormalizer
	cache   map[entities.RecipeID]*explosion
}

func newExploder(builder *bomgraph.Builder, units *services.UnitNormalizer) *exploder {
	return &exploder{
		builder: builder,
		units:   units,
		cache:   make(map[entities.RecipeID]*explosion),
	}
}

func (x *exploder) explode(ctx context.Context, recipeID entities.RecipeID) (*explosion, error) {
	if cached, ok := x.cache[recipeID]; ok {
		return cached, nil
	}

	graph, err := x.builder.Build(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	computed := make(map[entities.RecipeID]*explosion, graph.RecipeCount())
	for _, id := range graph.PostOrder() {
		if cached, ok := x.cache[id]; ok {
			computed[id] = cached
			continue
		}
		node, _ := graph.Recipe(id)
		result, err := x.explodeNode(graph, node, computed)
		if err != nil {
			return nil, fmt.Errorf("failed to explode recipe %s: %w", id, err)
		}
		computed[id] = result
	}

	for id, result := range computed {
		x.cache[id] = result
	}
	return computed[recipeID], nil
}

func (x *exploder) explodeNode(
	graph *bomgraph.Graph,
	node *bomgraph.RecipeNode,
	computed map[entities.RecipeID]*explosion,
) (*explosion, error) {
	result := &explosion{
		recipe:      node.Recipe,
		perBatch:    make(map[entities.ItemID]float64),
		placeholder: node.Recipe.IsPlaceholder,
	}

	for _, edge := range node.Edges {
		switch ref := edge.Ref.(type) {
		case entities.InventoryItemRef:
			item, ok := graph.Item(ref.ID)
			if !ok {
				return nil, &entities.DanglingComponentReferenceError{RecipeID: node.Recipe.ID, Ref: ref}
			}
			yield, err := item.YieldFraction()
			if err != nil {
				return nil, err
			}
			natural, err := x.units.Convert(edge.Quantity, edge.Unit, item.Unit)
			if err != nil {
				return nil, err
			}
			result.perBatch[item.ID] += natural / yield

		case entities.RecipeRef:
			child, ok := computed[ref.ID]
			if !ok {
				return nil, &entities.DanglingComponentReferenceError{RecipeID: node.Recipe.ID, Ref: ref}
			}
			batches, err := x.batches(edge.Quantity, edge.Unit, child.recipe)
			if err != nil {
				return nil, err
			}
			for itemID, quantity := range child.perBatch {
				result.perBatch[itemID] += quantity * batches
			}
			if child.placeholder {
				result.placeholder = true
			}
		}
	}

	for itemID, quantity := range result.perBatch {
		if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
			return nil, &entities.NumericOverflowError{
				RecipeID: node.Recipe.ID,
				Reason:   fmt.Sprintf("usage of %s is not finite", itemID),
			}
		}
	}

	return result, nil
}

// batches converts a quantity of a recipe's output into a number of batches
func (x *exploder) batches(quantity float64, unit entities.UnitID, recipe *entities.Recipe) (float64, error) {
	if recipe.YieldQty <= 0 {
		return 0, &entities.NumericOverflowError{
			RecipeID: recipe.ID,
			Reason:   fmt.Sprintf("yield quantity must be positive, got %g", recipe.YieldQty),
		}
	}
	if unit == "" {
		unit = recipe.YieldUnit
	}
	yieldUnits, err := x.units.Convert(quantity, unit, recipe.YieldUnit)
	if err != nil {
		return 0, err
	}
	return yieldUnits / recipe.YieldQty, nil
}

// servingBatches is the number of batches one sale of menu consumes. A zero serving
// quantity sells the whole batch.
func (x *exploder) servingBatches(menu *entities.MenuItem, recipe *entities.Recipe) (float64, error) {
	if menu.ServingQty == 0 {
		return 1, nil
	}
	return x.batches(menu.ServingQty, menu.ServingUnit, recipe)
}
