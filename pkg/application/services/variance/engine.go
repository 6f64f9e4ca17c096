package variance

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/bomgraph"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/domain/services"
)

// Options tune what the theoretical side of a report includes
type Options struct {
	// ExcludePlaceholders drops menu items whose recipe tree contains a placeholder
	ExcludePlaceholders bool
}

// Engine reconciles theoretical usage from sales against counted depletion
type Engine struct {
	data    repositories.Reporting
	builder *bomgraph.Builder
	units   *services.UnitNormalizer
	options Options
}

// NewEngine creates an engine that includes and flags placeholder recipes
func NewEngine(data repositories.Reporting) *Engine {
	return NewEngineWithOptions(data, Options{})
}

// NewEngineWithOptions creates an engine with explicit placeholder handling
func NewEngineWithOptions(data repositories.Reporting, options Options) *Engine {
	return &Engine{
		data:    data,
		builder: bomgraph.NewBuilder(data, data),
		units:   services.NewUnitNormalizer(data),
		options: options,
	}
}

// window is the resolved reporting period
type window struct {
	storeID  entities.StoreID
	previous *entities.InventoryCount
	current  *entities.InventoryCount
}

// menuUsage is the theoretical consumption of one sold menu item over the window
type menuUsage struct {
	menu        *entities.MenuItem
	recipe      *entities.Recipe
	qtySold     float64
	items       map[entities.ItemID]float64
	placeholder bool
}

// ComputeVariance builds the per-item report between two counts at a store. Menu items
// whose recipes cannot be exploded are reported in Errors instead of failing the report.
func (e *Engine) ComputeVariance(
	ctx context.Context,
	storeID entities.StoreID,
	previousCountID, currentCountID entities.CountID,
) (*dto.VarianceReport, error) {
	w, err := e.resolveWindow(storeID, previousCountID, currentCountID)
	if err != nil {
		return nil, err
	}

	usages, lineErrors, err := e.theoretical(ctx, w)
	if err != nil {
		return nil, err
	}

	movements, err := e.data.GetMovements(storeID, w.previous.TakenAt, w.current.TakenAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements for store %s: %w", storeID, err)
	}
	inflow := make(map[entities.ItemID]float64)
	waste := make(map[entities.ItemID]float64)
	for _, movement := range movements {
		inflow[movement.ItemID] += movement.Inflow()
		if movement.Kind == entities.Waste {
			waste[movement.ItemID] += movement.Quantity
		}
	}

	theoretical := make(map[entities.ItemID]float64)
	placeholderItems := make(map[entities.ItemID]bool)
	for _, usage := range usages {
		for itemID, quantity := range usage.items {
			theoretical[itemID] += quantity
			if usage.placeholder {
				placeholderItems[itemID] = true
			}
		}
	}

	items, err := e.data.GetAllInventoryItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory items: %w", err)
	}

	report := &dto.VarianceReport{
		StoreID:              storeID,
		PreviousCountID:      previousCountID,
		CurrentCountID:       currentCountID,
		PeriodStart:          w.previous.TakenAt,
		PeriodEnd:            w.current.TakenAt,
		Lines:                make([]dto.VarianceLine, 0, len(items)),
		Errors:               lineErrors,
		TotalTheoreticalCost: decimal.Zero,
		TotalActualCost:      decimal.Zero,
		TotalVarianceCost:    decimal.Zero,
	}

	unitCosts := make(map[entities.ItemID]decimal.Decimal, len(items))
	for _, item := range items {
		_, counted := w.previous.OnHand[item.ID]
		_, recounted := w.current.OnHand[item.ID]
		_, moved := inflow[item.ID]
		_, used := theoretical[item.ID]
		if !item.Active && !counted && !recounted && !moved && !used {
			continue
		}

		line, err := e.varianceLine(item, w)
		if err != nil {
			report.Errors = append(report.Errors, dto.LineError{
				InventoryItemID: item.ID,
				Message:         err.Error(),
				Err:             err,
			})
			continue
		}
		line.Inflow = inflow[item.ID]
		line.RecordedWaste = waste[item.ID]
		line.ActualQty = line.PreviousOnHand + line.Inflow - line.CurrentOnHand
		line.TheoreticalQty = theoretical[item.ID]
		line.VarianceQty = line.ActualQty - line.TheoreticalQty
		line.UnexplainedQty = line.VarianceQty - line.RecordedWaste
		line.IncludesPlaceholder = placeholderItems[item.ID]

		line.ActualCost = decimal.NewFromFloat(line.ActualQty).Mul(line.UnitCost)
		line.TheoreticalCost = decimal.NewFromFloat(line.TheoreticalQty).Mul(line.UnitCost)
		line.VarianceCost = line.ActualCost.Sub(line.TheoreticalCost)

		report.TotalActualCost = report.TotalActualCost.Add(line.ActualCost)
		report.TotalTheoreticalCost = report.TotalTheoreticalCost.Add(line.TheoreticalCost)
		report.TotalVarianceCost = report.TotalVarianceCost.Add(line.VarianceCost)

		unitCosts[item.ID] = line.UnitCost
		report.Lines = append(report.Lines, line)
	}

	sort.Slice(report.Lines, func(i, j int) bool {
		if report.Lines[i].InventoryItemName != report.Lines[j].InventoryItemName {
			return report.Lines[i].InventoryItemName < report.Lines[j].InventoryItemName
		}
		return report.Lines[i].InventoryItemID < report.Lines[j].InventoryItemID
	})

	report.Contributions = make([]dto.MenuItemContribution, 0, len(usages))
	for _, usage := range usages {
		cost := decimal.Zero
		for itemID, quantity := range usage.items {
			cost = cost.Add(decimal.NewFromFloat(quantity).Mul(unitCosts[itemID]))
		}
		report.Contributions = append(report.Contributions, dto.MenuItemContribution{
			MenuItemID:      usage.menu.ID,
			MenuItemName:    usage.menu.Name,
			SKU:             usage.menu.SKU,
			RecipeID:        usage.recipe.ID,
			QtySold:         usage.qtySold,
			TheoreticalCost: cost,
			Placeholder:     usage.placeholder,
		})
	}

	return report, nil
}

// TheoreticalDetail drills into one inventory item: its total theoretical usage over the
// window and how much each sold menu item contributed
func (e *Engine) TheoreticalDetail(
	ctx context.Context,
	storeID entities.StoreID,
	itemID entities.ItemID,
	previousCountID, currentCountID entities.CountID,
) (*dto.TheoreticalDetail, error) {
	item, err := e.data.GetInventoryItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item %s: %w", itemID, err)
	}

	w, err := e.resolveWindow(storeID, previousCountID, currentCountID)
	if err != nil {
		return nil, err
	}

	usages, lineErrors, err := e.theoretical(ctx, w)
	if err != nil {
		return nil, err
	}

	unit, err := e.units.Unit(item.Unit)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve unit of inventory item %s: %w", itemID, err)
	}
	unitCost, err := e.units.PricePerUnit(item.PricePerBaseUnit, item.Unit)
	if err != nil {
		return nil, fmt.Errorf("failed to price inventory item %s: %w", itemID, err)
	}

	detail := &dto.TheoreticalDetail{
		Summary: dto.TheoreticalSummary{
			InventoryItemID:   item.ID,
			InventoryItemName: item.Name,
			TotalCost:         decimal.Zero,
			UnitName:          unit.Name,
			UnitAbbreviation:  unit.Abbreviation,
		},
		MenuItems: make([]dto.MenuItemUsage, 0),
		Errors:    lineErrors,
	}

	for _, usage := range usages {
		quantity, used := usage.items[itemID]
		if !used {
			continue
		}
		cost := decimal.NewFromFloat(quantity).Mul(unitCost)
		detail.MenuItems = append(detail.MenuItems, dto.MenuItemUsage{
			MenuItemID:     usage.menu.ID,
			MenuItemName:   usage.menu.Name,
			QtySold:        usage.qtySold,
			TheoreticalQty: quantity,
			Cost:           cost,
			Placeholder:    usage.placeholder,
		})
		detail.Summary.TotalQty += quantity
		detail.Summary.TotalCost = detail.Summary.TotalCost.Add(cost)
	}

	return detail, nil
}

// Query answers a variance query with a full report or, when a target item is given,
// with its drill-down
func (e *Engine) Query(ctx context.Context, query dto.VarianceQuery) (*dto.VarianceQueryResult, error) {
	if query.TargetItemID != nil {
		detail, err := e.TheoreticalDetail(ctx, query.StoreID, *query.TargetItemID, query.PreviousCountID, query.CurrentCountID)
		if err != nil {
			return nil, err
		}
		return &dto.VarianceQueryResult{Detail: detail}, nil
	}

	report, err := e.ComputeVariance(ctx, query.StoreID, query.PreviousCountID, query.CurrentCountID)
	if err != nil {
		return nil, err
	}
	return &dto.VarianceQueryResult{Report: report}, nil
}

func (e *Engine) resolveWindow(storeID entities.StoreID, previousCountID, currentCountID entities.CountID) (*window, error) {
	previous, err := e.data.GetCount(previousCountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous count %s: %w", previousCountID, err)
	}
	current, err := e.data.GetCount(currentCountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current count %s: %w", currentCountID, err)
	}

	for _, count := range []*entities.InventoryCount{previous, current} {
		if count.StoreID != storeID {
			return nil, fmt.Errorf("count %s belongs to store %s, not %s", count.ID, count.StoreID, storeID)
		}
	}
	if !previous.TakenAt.Before(current.TakenAt) {
		return nil, fmt.Errorf("previous count %s (%s) must be taken before current count %s (%s)",
			previous.ID, previous.TakenAt.Format("2006-01-02 15:04"), current.ID, current.TakenAt.Format("2006-01-02 15:04"))
	}

	return &window{storeID: storeID, previous: previous, current: current}, nil
}

// theoretical explodes every menu item sold in the window. Usages come back sorted by
// menu item name.
func (e *Engine) theoretical(ctx context.Context, w *window) ([]*menuUsage, []dto.LineError, error) {
	sales, err := e.data.GetSales(w.storeID, w.previous.TakenAt, w.current.TakenAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sales for store %s: %w", w.storeID, err)
	}

	soldBySKU := make(map[string]float64)
	skus := make([]string, 0)
	for _, sale := range sales {
		if _, seen := soldBySKU[sale.SKU]; !seen {
			skus = append(skus, sale.SKU)
		}
		soldBySKU[sale.SKU] += sale.Quantity
	}
	sort.Strings(skus)

	x := newExploder(e.builder, e.units)
	usages := make([]*menuUsage, 0, len(skus))
	lineErrors := make([]dto.LineError, 0)

	for _, sku := range skus {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		menu, err := e.data.GetMenuItemBySKU(sku)
		if err != nil {
			lineErrors = append(lineErrors, newLineError("", sku, err))
			continue
		}
		if !menu.HasRecipe() {
			continue
		}

		usage, err := e.menuUsage(ctx, x, menu, soldBySKU[sku])
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, nil, err
			}
			lineErrors = append(lineErrors, newLineError(menu.ID, sku, err))
			continue
		}
		if usage.placeholder && e.options.ExcludePlaceholders {
			continue
		}
		usages = append(usages, usage)
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].menu.Name != usages[j].menu.Name {
			return usages[i].menu.Name < usages[j].menu.Name
		}
		return usages[i].menu.ID < usages[j].menu.ID
	})

	return usages, lineErrors, nil
}

func (e *Engine) menuUsage(ctx context.Context, x *exploder, menu *entities.MenuItem, qtySold float64) (*menuUsage, error) {
	exploded, err := x.explode(ctx, *menu.RecipeID)
	if err != nil {
		return nil, err
	}
	batches, err := x.servingBatches(menu, exploded.recipe)
	if err != nil {
		return nil, err
	}

	usage := &menuUsage{
		menu:        menu,
		recipe:      exploded.recipe,
		qtySold:     qtySold,
		items:       make(map[entities.ItemID]float64, len(exploded.perBatch)),
		placeholder: exploded.placeholder,
	}
	for itemID, quantity := range exploded.perBatch {
		usage.items[itemID] = quantity * batches * qtySold
	}
	return usage, nil
}

func (e *Engine) varianceLine(item *entities.InventoryItem, w *window) (dto.VarianceLine, error) {
	unit, err := e.units.Unit(item.Unit)
	if err != nil {
		return dto.VarianceLine{}, fmt.Errorf("failed to resolve unit of inventory item %s: %w", item.ID, err)
	}
	unitCost, err := e.units.PricePerUnit(item.PricePerBaseUnit, item.Unit)
	if err != nil {
		return dto.VarianceLine{}, fmt.Errorf("failed to price inventory item %s: %w", item.ID, err)
	}

	return dto.VarianceLine{
		InventoryItemID:   item.ID,
		InventoryItemName: item.Name,
		UnitID:            unit.ID,
		UnitName:          unit.Name,
		UnitAbbreviation:  unit.Abbreviation,
		PreviousOnHand:    w.previous.Quantity(item.ID),
		CurrentOnHand:     w.current.Quantity(item.ID),
		UnitCost:          unitCost,
	}, nil
}

func newLineError(menuID entities.MenuItemID, sku string, err error) dto.LineError {
	return dto.LineError{
		MenuItemID: menuID,
		SKU:        sku,
		Message:    err.Error(),
		Err:        err,
	}
}
