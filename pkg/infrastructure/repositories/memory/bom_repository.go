package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// RecipeRepository provides in-memory recipe storage. Reads return copies so a
// recalculation can never observe a half-applied cost batch.
type RecipeRepository struct {
	recipes    []*entities.Recipe
	recipesMap map[entities.RecipeID]int
	mutex      sync.RWMutex
}

// NewRecipeRepository creates a new in-memory recipe repository
func NewRecipeRepository(expectedRecipes int) *RecipeRepository {
	return &RecipeRepository{
		recipes:    make([]*entities.Recipe, 0, expectedRecipes),
		recipesMap: make(map[entities.RecipeID]int, expectedRecipes),
	}
}

// Verify interface compliance
var _ repositories.RecipeRepository = (*RecipeRepository)(nil)
var _ repositories.CostWriter = (*RecipeRepository)(nil)

// LoadRecipes loads recipes into the repository
func (r *RecipeRepository) LoadRecipes(recipes []*entities.Recipe) error {
	for _, recipe := range recipes {
		r.AddRecipe(recipe)
	}
	return nil
}

// AddRecipe adds a copy of the recipe, replacing any recipe with the same id
func (r *RecipeRepository) AddRecipe(recipe *entities.Recipe) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if index, exists := r.recipesMap[recipe.ID]; exists {
		r.recipes[index] = recipe.Clone()
		return
	}
	r.recipesMap[recipe.ID] = len(r.recipes)
	r.recipes = append(r.recipes, recipe.Clone())
}

// GetRecipe returns a copy of a recipe by id
func (r *RecipeRepository) GetRecipe(id entities.RecipeID) (*entities.Recipe, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	index, exists := r.recipesMap[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrRecipeNotFound, id)
	}
	return r.recipes[index].Clone(), nil
}

// GetAllRecipes returns copies of all recipes in insertion order
func (r *RecipeRepository) GetAllRecipes() ([]*entities.Recipe, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	recipes := make([]*entities.Recipe, 0, len(r.recipes))
	for _, recipe := range r.recipes {
		recipes = append(recipes, recipe.Clone())
	}
	return recipes, nil
}

// SaveRecipeCosts applies all costs under one lock, or none if any id is unknown
func (r *RecipeRepository) SaveRecipeCosts(ctx context.Context, costs map[entities.RecipeID]decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id := range costs {
		if _, exists := r.recipesMap[id]; !exists {
			return fmt.Errorf("failed to save cost: %w: %s", entities.ErrRecipeNotFound, id)
		}
	}
	for id, cost := range costs {
		r.recipes[r.recipesMap[id]].ComputedCost = cost
	}
	return nil
}
