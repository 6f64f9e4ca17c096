package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
)

// CostWriter writes recomputed recipe costs for one tenant
type CostWriter struct {
	store  *Store
	tenant memory.TenantID
}

// CostWriter scopes cost writes to a tenant
func (s *Store) CostWriter(tenant memory.TenantID) *CostWriter {
	return &CostWriter{store: s, tenant: tenant}
}

// Verify interface compliance
var _ repositories.CostWriter = (*CostWriter)(nil)

// SaveRecipeCosts updates every cost in one transaction. An unknown recipe rolls the
// whole batch back.
func (w *CostWriter) SaveRecipeCosts(ctx context.Context, costs map[entities.RecipeID]decimal.Decimal) error {
	if len(costs) == 0 {
		return nil
	}

	return w.store.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE recipes SET computed_cost = ? WHERE tenant = ? AND id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare cost update: %w", err)
		}
		defer stmt.Close()

		for id, cost := range costs {
			result, err := stmt.ExecContext(ctx, cost.String(), w.tenant, id)
			if err != nil {
				return fmt.Errorf("failed to update cost of recipe %s: %w", id, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to update cost of recipe %s: %w", id, err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: %s", entities.ErrRecipeNotFound, id)
			}
		}
		return nil
	})
}
