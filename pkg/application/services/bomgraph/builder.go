package bomgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/domain/services"
)

// Builder assembles BOM graphs from the storage snapshot
type Builder struct {
	recipes repositories.RecipeRepository
	items   repositories.InventoryItemRepository
}

// NewBuilder creates a new BOM graph builder
func NewBuilder(recipes repositories.RecipeRepository, items repositories.InventoryItemRepository) *Builder {
	return &Builder{
		recipes: recipes,
		items:   items,
	}
}

// frame is one recipe on the active DFS path
type frame struct {
	node *RecipeNode
	next int
}

// Build explodes the BOM rooted at rootID. Cycles are detected against the active path
// before any cost arithmetic can run on the result.
func (b *Builder) Build(ctx context.Context, rootID entities.RecipeID) (*Graph, error) {
	return b.build(ctx, rootID, b.recipes)
}

// ValidateProposed builds the graph as if proposed replaced the stored recipe with the
// same id. Use it to reject a save that would introduce a cycle.
func (b *Builder) ValidateProposed(ctx context.Context, proposed *entities.Recipe) (*Graph, error) {
	overlay := &overlayRecipes{RecipeRepository: b.recipes, proposed: proposed}
	return b.build(ctx, proposed.ID, overlay)
}

// ValidateAll reports every structural problem in the catalog at once
func (b *Builder) ValidateAll(ctx context.Context) (*services.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recipes, err := b.recipes.GetAllRecipes()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}
	items, err := b.items.GetAllInventoryItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory items: %w", err)
	}
	return services.ValidateRecipes(recipes, items), nil
}

func (b *Builder) build(ctx context.Context, rootID entities.RecipeID, recipes repositories.RecipeRepository) (*Graph, error) {
	root, err := recipes.GetRecipe(rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", rootID, err)
	}

	graph := newGraph(rootID)
	onPath := make(map[entities.RecipeID]bool)
	path := make([]entities.RecipeID, 0)
	stack := make([]frame, 0)

	push := func(recipe *entities.Recipe) {
		node := &RecipeNode{Recipe: recipe, Edges: make([]Edge, 0, len(recipe.Components))}
		graph.recipes[recipe.ID] = node
		onPath[recipe.ID] = true
		path = append(path, recipe.ID)
		stack = append(stack, frame{node: node})
	}

	push(root)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := &stack[len(stack)-1]
		recipe := top.node.Recipe

		if top.next >= len(recipe.Components) {
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			onPath[recipe.ID] = false
			graph.postOrder = append(graph.postOrder, recipe.ID)
			continue
		}

		component := recipe.Components[top.next]
		top.next++

		top.node.Edges = append(top.node.Edges, Edge{
			Position: component.Position,
			Ref:      component.Ref,
			Quantity: component.Quantity,
			Unit:     component.Unit,
		})

		switch ref := component.Ref.(type) {
		case entities.InventoryItemRef:
			if _, seen := graph.items[ref.ID]; seen {
				continue
			}
			item, err := b.items.GetInventoryItem(ref.ID)
			if err != nil {
				return nil, resolveError(recipe.ID, ref, err)
			}
			graph.items[ref.ID] = item

		case entities.RecipeRef:
			if onPath[ref.ID] {
				return nil, cycleError(path, ref.ID)
			}
			if _, seen := graph.recipes[ref.ID]; seen {
				continue
			}
			child, err := recipes.GetRecipe(ref.ID)
			if err != nil {
				return nil, resolveError(recipe.ID, ref, err)
			}
			push(child)

		default:
			return nil, fmt.Errorf("recipe %s position %d: unsupported component reference %T", recipe.ID, component.Position, component.Ref)
		}
	}

	graph.depth = computeDepth(graph)
	return graph, nil
}

// computeDepth walks the post-order so every child level is known before its parent
func computeDepth(graph *Graph) int {
	levels := make(map[entities.RecipeID]int, len(graph.postOrder))
	for _, id := range graph.postOrder {
		level := 1
		for _, edge := range graph.recipes[id].Edges {
			if ref, ok := edge.Ref.(entities.RecipeRef); ok && levels[ref.ID]+1 > level {
				level = levels[ref.ID] + 1
			}
		}
		levels[id] = level
	}
	return levels[graph.root]
}

func cycleError(path []entities.RecipeID, repeated entities.RecipeID) error {
	for i, id := range path {
		if id == repeated {
			cycle := make([]entities.RecipeID, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			cycle = append(cycle, repeated)
			return &entities.CyclicRecipeReferenceError{Cycle: cycle}
		}
	}
	return &entities.CyclicRecipeReferenceError{Cycle: []entities.RecipeID{repeated, repeated}}
}

func resolveError(owner entities.RecipeID, ref entities.ComponentRef, err error) error {
	if errors.Is(err, entities.ErrRecipeNotFound) || errors.Is(err, entities.ErrInventoryItemNotFound) {
		return &entities.DanglingComponentReferenceError{RecipeID: owner, Ref: ref}
	}
	return fmt.Errorf("failed to resolve %s in recipe %s: %w", ref, owner, err)
}

// overlayRecipes substitutes one proposed recipe for its stored version
type overlayRecipes struct {
	repositories.RecipeRepository
	proposed *entities.Recipe
}

func (o *overlayRecipes) GetRecipe(id entities.RecipeID) (*entities.Recipe, error) {
	if id == o.proposed.ID {
		return o.proposed.Clone(), nil
	}
	return o.RecipeRepository.GetRecipe(id)
}
