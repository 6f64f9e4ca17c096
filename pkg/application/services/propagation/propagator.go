package propagation

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// Config holds propagation settings
type Config struct {
	// Epsilon is the smallest cost change that is written back
	Epsilon decimal.Decimal
	// MaxConcurrency bounds recipes recomputed in parallel within one dependency layer
	MaxConcurrency int
	Logger         *log.Logger
	Costing        costing.Config
}

// DefaultConfig returns the settings used by NewPropagator
func DefaultConfig() Config {
	return Config{
		Epsilon:        decimal.New(1, -6),
		MaxConcurrency: runtime.NumCPU(),
		Logger:         log.New(io.Discard, "", 0),
		Costing:        costing.DefaultConfig(),
	}
}

// Propagator is the single owner of recipe cost writes. It recomputes every recipe that
// transitively consumes a changed source, dependencies first.
type Propagator struct {
	catalog    repositories.Catalog
	calculator *costing.Calculator
	config     Config
}

// NewPropagator creates a propagator with default settings
func NewPropagator(catalog repositories.Catalog) *Propagator {
	return NewPropagatorWithConfig(catalog, DefaultConfig())
}

// NewPropagatorWithConfig creates a propagator with custom settings
func NewPropagatorWithConfig(catalog repositories.Catalog, config Config) *Propagator {
	defaults := DefaultConfig()
	if config.Epsilon.IsZero() || config.Epsilon.IsNegative() {
		config.Epsilon = defaults.Epsilon
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	return &Propagator{
		catalog:    catalog,
		calculator: costing.NewCalculatorWithConfig(catalog, config.Costing),
		config:     config,
	}
}

// OnSourceChanged recomputes the recipes affected by a price change of an inventory item
// or a cost change of a recipe. A changed recipe is itself recomputed.
func (p *Propagator) OnSourceChanged(ctx context.Context, source entities.ComponentRef) (*dto.RecalculationResult, error) {
	switch ref := source.(type) {
	case entities.InventoryItemRef:
		if _, err := p.catalog.GetInventoryItem(ref.ID); err != nil {
			return nil, fmt.Errorf("failed to resolve changed source %s: %w", source, err)
		}
	case entities.RecipeRef:
		if _, err := p.catalog.GetRecipe(ref.ID); err != nil {
			return nil, fmt.Errorf("failed to resolve changed source %s: %w", source, err)
		}
	default:
		return nil, fmt.Errorf("unsupported change source %T", source)
	}

	recipes, err := p.catalog.GetAllRecipes()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}

	graph := newDependencyGraph(recipes)
	affected := graph.affectedBy(source)

	return p.recalculate(ctx, source, graph, affected)
}

// RecalculateAll recomputes every recipe in the catalog in dependency order
func (p *Propagator) RecalculateAll(ctx context.Context) (*dto.RecalculationResult, error) {
	recipes, err := p.catalog.GetAllRecipes()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes: %w", err)
	}

	graph := newDependencyGraph(recipes)
	affected := make(map[entities.RecipeID]bool, len(recipes))
	for _, recipe := range recipes {
		affected[recipe.ID] = true
	}

	return p.recalculate(ctx, nil, graph, affected)
}

// Commit writes the changed costs through writer in one call. It is the only code path
// that mutates a recipe's stored cost.
func (p *Propagator) Commit(ctx context.Context, result *dto.RecalculationResult, writer repositories.CostWriter) error {
	if result == nil || len(result.Updates) == 0 {
		return nil
	}
	if err := writer.SaveRecipeCosts(ctx, result.Updates); err != nil {
		return fmt.Errorf("failed to commit %d recipe costs for run %s: %w", len(result.Updates), result.RunID, err)
	}
	p.config.Logger.Printf("run %s: committed %d recipe costs", result.RunID, len(result.Updates))
	return nil
}

func (p *Propagator) recalculate(
	ctx context.Context,
	source entities.ComponentRef,
	graph *dependencyGraph,
	affected map[entities.RecipeID]bool,
) (*dto.RecalculationResult, error) {
	started := time.Now()
	result := &dto.RecalculationResult{
		RunID:         uuid.New().String(),
		Source:        source,
		Affected:      sortedIDs(affected),
		Updates:       make(map[entities.RecipeID]decimal.Decimal),
		PreviousCosts: make(map[entities.RecipeID]decimal.Decimal),
		Failures:      make(map[entities.RecipeID]error),
		StartedAt:     started,
	}

	layers, leftover := graph.layers(affected)
	result.Layers = layers

	session := p.calculator.NewSession()
	costs := make(map[entities.RecipeID]*costing.CostBreakdown, len(affected))
	var mutex sync.Mutex

	evaluate := func(id entities.RecipeID) {
		breakdown, err := session.ComputeCost(ctx, id)
		mutex.Lock()
		defer mutex.Unlock()
		if err != nil {
			result.Failures[id] = err
			return
		}
		costs[id] = breakdown
	}

	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		group := new(errgroup.Group)
		group.SetLimit(p.config.MaxConcurrency)

		for _, id := range layer {
			result.Order = append(result.Order, id)
			// Workers of this layer write Failures concurrently with dispatch
			mutex.Lock()
			failedDep, depErr, failed := p.failedDependency(graph, id, result.Failures)
			if failed {
				result.Failures[id] = &entities.DependencyFailedError{RecipeID: id, Dependency: failedDep, Err: depErr}
			}
			mutex.Unlock()
			if failed {
				continue
			}
			id := id
			group.Go(func() error {
				evaluate(id)
				return nil
			})
		}

		// Goroutines never return errors; failures are recorded per recipe
		_ = group.Wait()
	}

	// Recipes Kahn could not schedule sit on or above a cycle. Each is evaluated on its
	// own so the failure names the cycle.
	for _, id := range leftover {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Order = append(result.Order, id)
		evaluate(id)
	}

	for _, id := range result.Order {
		breakdown, ok := costs[id]
		if !ok {
			continue
		}
		previous := graph.recipes[id].ComputedCost
		if breakdown.Total.Sub(previous).Abs().GreaterThan(p.config.Epsilon) {
			result.Updates[id] = breakdown.Total
			result.PreviousCosts[id] = previous
		} else {
			result.Unchanged = append(result.Unchanged, id)
		}
	}

	result.Duration = time.Since(started)

	sourceName := "all recipes"
	if source != nil {
		sourceName = source.String()
	}
	p.config.Logger.Printf("run %s: %s affected %d recipes, %d updated, %d unchanged, %d failed in %v",
		result.RunID, sourceName, len(result.Affected), len(result.Updates), len(result.Unchanged), len(result.Failures), result.Duration)
	for _, id := range sortedErrorIDs(result.Failures) {
		p.config.Logger.Printf("run %s: recipe %s failed: %v", result.RunID, id, result.Failures[id])
	}

	return result, nil
}

// failedDependency reports the first direct dependency of id that already failed
func (p *Propagator) failedDependency(
	graph *dependencyGraph,
	id entities.RecipeID,
	failures map[entities.RecipeID]error,
) (entities.RecipeID, error, bool) {
	for _, dep := range graph.dependenciesOf(id) {
		if err, failed := failures[dep]; failed {
			return dep, err, true
		}
	}
	return "", nil, false
}

func sortedIDs(set map[entities.RecipeID]bool) []entities.RecipeID {
	ids := make([]entities.RecipeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedErrorIDs(failures map[entities.RecipeID]error) []entities.RecipeID {
	ids := make([]entities.RecipeID, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
