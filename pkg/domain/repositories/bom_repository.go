package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// RecipeRepository provides access to recipes and their bills of materials
type RecipeRepository interface {
	GetRecipe(id entities.RecipeID) (*entities.Recipe, error)
	GetAllRecipes() ([]*entities.Recipe, error)
	LoadRecipes(recipes []*entities.Recipe) error
}

// CostWriter persists recomputed recipe costs. Implementations must apply the whole map
// or nothing.
type CostWriter interface {
	SaveRecipeCosts(ctx context.Context, costs map[entities.RecipeID]decimal.Decimal) error
}
