package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// RecalculationResult is the outcome of one cost propagation run. Updates is the only
// part meant for persistence and should be written in one transaction.
type RecalculationResult struct {
	RunID  string
	Source entities.ComponentRef
	// Affected is the transitive closure of recipes consuming the source
	Affected []entities.RecipeID
	// Layers groups Affected by dependency level; a layer only depends on earlier layers
	Layers [][]entities.RecipeID
	// Order is the sequence recipes were evaluated in, leaves before consumers
	Order []entities.RecipeID
	// Updates holds new batch costs that differ from the stored value beyond epsilon
	Updates       map[entities.RecipeID]decimal.Decimal
	PreviousCosts map[entities.RecipeID]decimal.Decimal
	Unchanged     []entities.RecipeID
	Failures      map[entities.RecipeID]error
	StartedAt     time.Time
	Duration      time.Duration
}

// HasFailures reports whether any recipe in the closure failed to recompute
func (r *RecalculationResult) HasFailures() bool {
	return len(r.Failures) > 0
}
