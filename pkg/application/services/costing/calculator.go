package costing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/application/services/bomgraph"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/domain/services"
)

// Config holds limits that guard cost arithmetic
type Config struct {
	// MaxDepth is the deepest recipe nesting accepted before reporting NumericOverflow
	MaxDepth int
	// MaxQuantity bounds any converted line quantity, in base micro-units
	MaxQuantity float64
}

// DefaultConfig returns the limits used by NewCalculator
func DefaultConfig() Config {
	return Config{
		MaxDepth:    64,
		MaxQuantity: 1e12,
	}
}

// LineCost is the costed form of one recipe component
type LineCost struct {
	Position int
	Ref      entities.ComponentRef
	Quantity float64
	Unit     entities.UnitID
	// BaseQuantity is the line quantity in base micro-units of the target's unit
	BaseQuantity float64
	// YieldAdjustedQuantity is the raw quantity that must be purchased; equal to
	// BaseQuantity for sub-recipe lines
	YieldAdjustedQuantity float64
	// UnitPrice is the price per base micro-unit for items and per yield unit for sub-recipes
	UnitPrice decimal.Decimal
	Cost      decimal.Decimal
}

// CostBreakdown is the computed cost of one recipe batch
type CostBreakdown struct {
	RecipeID     entities.RecipeID
	Name         string
	YieldQty     float64
	YieldUnit    entities.UnitID
	Total        decimal.Decimal
	PerYieldUnit decimal.Decimal
	Lines        []LineCost
}

// Calculator explodes recipe BOMs into costs
type Calculator struct {
	builder *bomgraph.Builder
	units   *services.UnitNormalizer
	config  Config
}

// NewCalculator creates a calculator with default limits
func NewCalculator(catalog repositories.Catalog) *Calculator {
	return NewCalculatorWithConfig(catalog, DefaultConfig())
}

// NewCalculatorWithConfig creates a calculator with custom limits
func NewCalculatorWithConfig(catalog repositories.Catalog, config Config) *Calculator {
	defaults := DefaultConfig()
	if config.MaxDepth <= 0 {
		config.MaxDepth = defaults.MaxDepth
	}
	if config.MaxQuantity <= 0 {
		config.MaxQuantity = defaults.MaxQuantity
	}
	return &Calculator{
		builder: bomgraph.NewBuilder(catalog, catalog),
		units:   services.NewUnitNormalizer(catalog),
		config:  config,
	}
}

// Builder exposes the graph builder the calculator traverses with
func (c *Calculator) Builder() *bomgraph.Builder {
	return c.builder
}

// Units exposes the unit normalizer the calculator converts with
func (c *Calculator) Units() *services.UnitNormalizer {
	return c.units
}

// ComputeCost computes a recipe's batch cost from scratch
func (c *Calculator) ComputeCost(ctx context.Context, recipeID entities.RecipeID) (*CostBreakdown, error) {
	return c.NewSession().ComputeCost(ctx, recipeID)
}

// Session memoizes sub-recipe costs for the lifetime of one request
type Session struct {
	calculator *Calculator
	memo       map[entities.RecipeID]*CostBreakdown
	mutex      sync.RWMutex
}

// NewSession starts a memoizing session
func (c *Calculator) NewSession() *Session {
	return &Session{
		calculator: c,
		memo:       make(map[entities.RecipeID]*CostBreakdown),
	}
}

// Seed records an already computed breakdown so consumers reuse it
func (s *Session) Seed(breakdown *CostBreakdown) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.memo[breakdown.RecipeID] = breakdown
}

func (s *Session) lookup(id entities.RecipeID) (*CostBreakdown, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	breakdown, ok := s.memo[id]
	return breakdown, ok
}

// ComputeCost computes a recipe's batch cost. Nothing is memoized unless the whole
// graph costs successfully.
func (s *Session) ComputeCost(ctx context.Context, recipeID entities.RecipeID) (*CostBreakdown, error) {
	if cached, ok := s.lookup(recipeID); ok {
		return cached, nil
	}

	graph, err := s.calculator.builder.Build(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if graph.Depth() > s.calculator.config.MaxDepth {
		return nil, &entities.NumericOverflowError{
			RecipeID: recipeID,
			Reason:   fmt.Sprintf("nesting depth %d exceeds maximum %d", graph.Depth(), s.calculator.config.MaxDepth),
		}
	}

	computed := make(map[entities.RecipeID]*CostBreakdown, graph.RecipeCount())
	for _, id := range graph.PostOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cached, ok := s.lookup(id); ok {
			computed[id] = cached
			continue
		}
		node, _ := graph.Recipe(id)
		breakdown, err := s.calculator.costRecipe(graph, node, computed)
		if err != nil {
			return nil, fmt.Errorf("failed to cost recipe %s: %w", id, err)
		}
		computed[id] = breakdown
	}

	s.mutex.Lock()
	for id, breakdown := range computed {
		if _, exists := s.memo[id]; !exists {
			s.memo[id] = breakdown
		}
	}
	s.mutex.Unlock()

	return computed[recipeID], nil
}

// costRecipe prices one recipe whose sub-recipes are already in computed
func (c *Calculator) costRecipe(
	graph *bomgraph.Graph,
	node *bomgraph.RecipeNode,
	computed map[entities.RecipeID]*CostBreakdown,
) (*CostBreakdown, error) {
	recipe := node.Recipe
	if recipe.YieldQty <= 0 {
		return nil, &entities.NumericOverflowError{
			RecipeID: recipe.ID,
			Reason:   fmt.Sprintf("yield quantity must be positive, got %g", recipe.YieldQty),
		}
	}

	breakdown := &CostBreakdown{
		RecipeID:  recipe.ID,
		Name:      recipe.Name,
		YieldQty:  recipe.YieldQty,
		YieldUnit: recipe.YieldUnit,
		Total:     decimal.Zero,
		Lines:     make([]LineCost, 0, len(node.Edges)),
	}

	for _, edge := range node.Edges {
		line, err := c.costLine(graph, recipe.ID, edge, computed)
		if err != nil {
			return nil, err
		}
		breakdown.Lines = append(breakdown.Lines, line)
		breakdown.Total = breakdown.Total.Add(line.Cost)
	}

	breakdown.PerYieldUnit = breakdown.Total.Div(decimal.NewFromFloat(recipe.YieldQty))

	return breakdown, nil
}

func (c *Calculator) costLine(
	graph *bomgraph.Graph,
	owner entities.RecipeID,
	edge bomgraph.Edge,
	computed map[entities.RecipeID]*CostBreakdown,
) (LineCost, error) {
	line := LineCost{
		Position: edge.Position,
		Ref:      edge.Ref,
		Quantity: edge.Quantity,
		Unit:     edge.Unit,
		Cost:     decimal.Zero,
	}

	switch ref := edge.Ref.(type) {
	case entities.InventoryItemRef:
		item, ok := graph.Item(ref.ID)
		if !ok {
			return line, &entities.DanglingComponentReferenceError{RecipeID: owner, Ref: ref}
		}
		yield, err := item.YieldFraction()
		if err != nil {
			return line, err
		}
		natural, err := c.units.Convert(edge.Quantity, edge.Unit, item.Unit)
		if err != nil {
			return line, err
		}
		base, err := c.units.ToBase(natural, item.Unit)
		if err != nil {
			return line, err
		}
		adjusted := base / yield
		if err := c.checkQuantity(owner, adjusted); err != nil {
			return line, err
		}

		line.BaseQuantity = base
		line.YieldAdjustedQuantity = adjusted
		line.UnitPrice = item.PricePerBaseUnit
		line.Cost = decimal.NewFromFloat(adjusted).Mul(item.PricePerBaseUnit)

	case entities.RecipeRef:
		child, ok := computed[ref.ID]
		if !ok {
			return line, &entities.DanglingComponentReferenceError{RecipeID: owner, Ref: ref}
		}
		yieldUnits, err := c.units.Convert(edge.Quantity, edge.Unit, child.YieldUnit)
		if err != nil {
			return line, err
		}
		if err := c.checkQuantity(owner, yieldUnits); err != nil {
			return line, err
		}
		base, err := c.units.ToBase(yieldUnits, child.YieldUnit)
		if err != nil {
			return line, err
		}

		line.BaseQuantity = base
		line.YieldAdjustedQuantity = base
		line.UnitPrice = child.PerYieldUnit
		line.Cost = decimal.NewFromFloat(yieldUnits).Mul(child.PerYieldUnit)

	default:
		return line, fmt.Errorf("recipe %s position %d: unsupported component reference %T", owner, edge.Position, edge.Ref)
	}

	return line, nil
}

func (c *Calculator) checkQuantity(owner entities.RecipeID, quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return &entities.NumericOverflowError{RecipeID: owner, Reason: "quantity is not finite"}
	}
	if math.Abs(quantity) > c.config.MaxQuantity {
		return &entities.NumericOverflowError{
			RecipeID: owner,
			Reason:   fmt.Sprintf("quantity %g exceeds maximum %g", quantity, c.config.MaxQuantity),
		}
	}
	return nil
}
