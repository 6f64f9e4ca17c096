package output

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/domain/services"
)

// Names resolves display names for component references; nil falls back to ids
type Names interface {
	GetRecipe(id entities.RecipeID) (*entities.Recipe, error)
	GetInventoryItem(id entities.ItemID) (*entities.InventoryItem, error)
}

var _ Names = (repositories.Catalog)(nil)

type costView struct {
	RecipeID     entities.RecipeID `json:"recipe_id" msgpack:"recipe_id"`
	Name         string            `json:"name" msgpack:"name"`
	YieldQty     float64           `json:"yield_qty" msgpack:"yield_qty"`
	YieldUnit    entities.UnitID   `json:"yield_unit" msgpack:"yield_unit"`
	Total        string            `json:"total" msgpack:"total"`
	PerYieldUnit string            `json:"per_yield_unit" msgpack:"per_yield_unit"`
	Lines        []costLineView    `json:"lines" msgpack:"lines"`
}

type costLineView struct {
	Position              int             `json:"position" msgpack:"position"`
	Component             string          `json:"component" msgpack:"component"`
	Name                  string          `json:"name" msgpack:"name"`
	Quantity              float64         `json:"quantity" msgpack:"quantity"`
	Unit                  entities.UnitID `json:"unit" msgpack:"unit"`
	BaseQuantity          float64         `json:"base_quantity" msgpack:"base_quantity"`
	YieldAdjustedQuantity float64         `json:"yield_adjusted_quantity" msgpack:"yield_adjusted_quantity"`
	UnitPrice             string          `json:"unit_price" msgpack:"unit_price"`
	Cost                  string          `json:"cost" msgpack:"cost"`
}

// CostDocument renders a recipe cost breakdown
func CostDocument(breakdown *costing.CostBreakdown, names Names) *Document {
	view := costView{
		RecipeID:     breakdown.RecipeID,
		Name:         breakdown.Name,
		YieldQty:     breakdown.YieldQty,
		YieldUnit:    breakdown.YieldUnit,
		Total:        breakdown.Total.String(),
		PerYieldUnit: breakdown.PerYieldUnit.String(),
		Lines:        make([]costLineView, 0, len(breakdown.Lines)),
	}

	table := Table{
		Name:   "Lines",
		Header: []string{"Pos", "Component", "Name", "Qty", "Unit", "Raw Qty (base)", "Cost"},
	}
	for _, line := range breakdown.Lines {
		name := displayName(names, line.Ref)
		view.Lines = append(view.Lines, costLineView{
			Position:              line.Position,
			Component:             line.Ref.String(),
			Name:                  name,
			Quantity:              line.Quantity,
			Unit:                  line.Unit,
			BaseQuantity:          line.BaseQuantity,
			YieldAdjustedQuantity: line.YieldAdjustedQuantity,
			UnitPrice:             line.UnitPrice.String(),
			Cost:                  line.Cost.String(),
		})
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(line.Position),
			line.Ref.String(),
			name,
			formatQty(line.Quantity),
			string(line.Unit),
			formatQty(line.YieldAdjustedQuantity),
			money(line.Cost),
		})
	}

	return &Document{
		Name:  "cost_" + string(breakdown.RecipeID),
		Title: fmt.Sprintf("💰 Cost of %s (%s)", breakdown.Name, breakdown.RecipeID),
		Summary: []Field{
			{Label: "Yield", Value: fmt.Sprintf("%s %s", formatQty(breakdown.YieldQty), breakdown.YieldUnit)},
			{Label: "Batch cost", Value: money(breakdown.Total)},
			{Label: "Cost per " + string(breakdown.YieldUnit), Value: money(breakdown.PerYieldUnit)},
		},
		Tables:  []Table{table},
		Payload: view,
	}
}

type recalculationView struct {
	RunID      string                `json:"run_id" msgpack:"run_id"`
	Source     string                `json:"source" msgpack:"source"`
	Affected   []entities.RecipeID   `json:"affected" msgpack:"affected"`
	Layers     [][]entities.RecipeID `json:"layers" msgpack:"layers"`
	Order      []entities.RecipeID   `json:"order" msgpack:"order"`
	Updates    []costChangeView      `json:"updates" msgpack:"updates"`
	Unchanged  []entities.RecipeID   `json:"unchanged" msgpack:"unchanged"`
	Failures   []failureView         `json:"failures" msgpack:"failures"`
	Committed  bool                  `json:"committed" msgpack:"committed"`
	DurationMS int64                 `json:"duration_ms" msgpack:"duration_ms"`
}

type costChangeView struct {
	RecipeID entities.RecipeID `json:"recipe_id" msgpack:"recipe_id"`
	Previous string            `json:"previous" msgpack:"previous"`
	Current  string            `json:"current" msgpack:"current"`
}

type failureView struct {
	RecipeID entities.RecipeID `json:"recipe_id" msgpack:"recipe_id"`
	Error    string            `json:"error" msgpack:"error"`
}

// RecalculationDocument renders a propagation run. Updates follow evaluation order.
func RecalculationDocument(result *dto.RecalculationResult, committed bool) *Document {
	source := "all recipes"
	if result.Source != nil {
		source = result.Source.String()
	}

	view := recalculationView{
		RunID:      result.RunID,
		Source:     source,
		Affected:   result.Affected,
		Layers:     result.Layers,
		Order:      result.Order,
		Updates:    make([]costChangeView, 0, len(result.Updates)),
		Unchanged:  result.Unchanged,
		Failures:   make([]failureView, 0, len(result.Failures)),
		Committed:  committed,
		DurationMS: result.Duration.Milliseconds(),
	}

	updates := Table{Name: "Updated Costs", Header: []string{"Recipe", "Previous", "New", "Change"}}
	for _, id := range result.Order {
		current, ok := result.Updates[id]
		if !ok {
			continue
		}
		previous := result.PreviousCosts[id]
		view.Updates = append(view.Updates, costChangeView{RecipeID: id, Previous: previous.String(), Current: current.String()})
		updates.Rows = append(updates.Rows, []string{string(id), money(previous), money(current), money(current.Sub(previous))})
	}

	failures := Table{Name: "Failures", Header: []string{"Recipe", "Error"}}
	failedIDs := make([]entities.RecipeID, 0, len(result.Failures))
	for id := range result.Failures {
		failedIDs = append(failedIDs, id)
	}
	sort.Slice(failedIDs, func(i, j int) bool { return failedIDs[i] < failedIDs[j] })
	for _, id := range failedIDs {
		view.Failures = append(view.Failures, failureView{RecipeID: id, Error: result.Failures[id].Error()})
		failures.Rows = append(failures.Rows, []string{string(id), result.Failures[id].Error()})
	}

	status := "dry run"
	if committed {
		status = "committed"
	}

	return &Document{
		Name:  "recalculation",
		Title: "🔄 Cost Recalculation",
		Summary: []Field{
			{Label: "Run", Value: result.RunID},
			{Label: "Source", Value: source},
			{Label: "Affected recipes", Value: strconv.Itoa(len(result.Affected))},
			{Label: "Updated", Value: strconv.Itoa(len(result.Updates))},
			{Label: "Unchanged", Value: strconv.Itoa(len(result.Unchanged))},
			{Label: "Failed", Value: strconv.Itoa(len(result.Failures))},
			{Label: "Status", Value: status},
			{Label: "Duration", Value: result.Duration.String()},
		},
		Tables:  []Table{updates, failures},
		Payload: view,
	}
}

// VarianceDocument renders a variance report
func VarianceDocument(report *dto.VarianceReport) *Document {
	lines := Table{
		Name: "Variance",
		Header: []string{"Item", "Unit", "Prev", "Inflow", "Curr", "Actual", "Theoretical",
			"Variance", "Waste", "Unexplained", "Variance Cost", "Placeholder"},
	}
	for _, line := range report.Lines {
		lines.Rows = append(lines.Rows, []string{
			line.InventoryItemName,
			line.UnitAbbreviation,
			formatQty(line.PreviousOnHand),
			formatQty(line.Inflow),
			formatQty(line.CurrentOnHand),
			formatQty(line.ActualQty),
			formatQty(line.TheoreticalQty),
			formatQty(line.VarianceQty),
			formatQty(line.RecordedWaste),
			formatQty(line.UnexplainedQty),
			money(line.VarianceCost),
			flag(line.IncludesPlaceholder),
		})
	}

	contributions := Table{
		Name:   "Menu Items",
		Header: []string{"Menu Item", "SKU", "Recipe", "Sold", "Theoretical Cost", "Placeholder"},
	}
	for _, c := range report.Contributions {
		contributions.Rows = append(contributions.Rows, []string{
			c.MenuItemName, c.SKU, string(c.RecipeID), formatQty(c.QtySold), money(c.TheoreticalCost), flag(c.Placeholder),
		})
	}

	return &Document{
		Name:  "variance_" + string(report.StoreID),
		Title: fmt.Sprintf("📊 Usage Variance for %s", report.StoreID),
		Summary: []Field{
			{Label: "Window", Value: fmt.Sprintf("%s (%s) to %s (%s)",
				report.PreviousCountID, report.PeriodStart.Format("2006-01-02 15:04"),
				report.CurrentCountID, report.PeriodEnd.Format("2006-01-02 15:04"))},
			{Label: "Theoretical cost", Value: money(report.TotalTheoreticalCost)},
			{Label: "Actual cost", Value: money(report.TotalActualCost)},
			{Label: "Variance cost", Value: money(report.TotalVarianceCost)},
		},
		Tables:  []Table{lines, contributions, lineErrorTable(report.Errors)},
		Payload: report,
	}
}

// DetailDocument renders a theoretical usage drill-down. Usage per sale is derived here
// and never stored.
func DetailDocument(detail *dto.TheoreticalDetail) *Document {
	menuItems := Table{
		Name:   "Menu Items",
		Header: []string{"Menu Item", "Sold", "Theoretical Qty", "Usage/Sale", "Cost", "Placeholder"},
	}
	for _, usage := range detail.MenuItems {
		menuItems.Rows = append(menuItems.Rows, []string{
			usage.MenuItemName,
			formatQty(usage.QtySold),
			formatQty(usage.TheoreticalQty),
			formatQty(usage.UsagePerSale()),
			money(usage.Cost),
			flag(usage.Placeholder),
		})
	}

	summary := detail.Summary
	return &Document{
		Name:  "usage_" + string(summary.InventoryItemID),
		Title: fmt.Sprintf("🔍 Theoretical Usage of %s", summary.InventoryItemName),
		Summary: []Field{
			{Label: "Total quantity", Value: fmt.Sprintf("%s %s", formatQty(summary.TotalQty), summary.UnitAbbreviation)},
			{Label: "Total cost", Value: money(summary.TotalCost)},
		},
		Tables:  []Table{menuItems, lineErrorTable(detail.Errors)},
		Payload: detail,
	}
}

type validationView struct {
	Valid    bool                  `json:"valid" msgpack:"valid"`
	Cycles   [][]entities.RecipeID `json:"cycles" msgpack:"cycles"`
	Errors   []string              `json:"errors" msgpack:"errors"`
	Warnings []string              `json:"warnings" msgpack:"warnings"`
}

// ValidationDocument renders a catalog validation result
func ValidationDocument(result *services.ValidationResult) *Document {
	issues := Table{Name: "Issues", Header: []string{"Severity", "Message"}}
	for _, message := range result.Errors {
		issues.Rows = append(issues.Rows, []string{"error", message})
	}
	for _, message := range result.Warnings {
		issues.Rows = append(issues.Rows, []string{"warning", message})
	}

	valid := len(result.Errors) == 0
	status := "✅ valid"
	if !valid {
		status = "❌ invalid"
	}

	return &Document{
		Name:  "validation",
		Title: "🔍 Recipe Catalog Validation",
		Summary: []Field{
			{Label: "Status", Value: status},
			{Label: "Cycles", Value: strconv.Itoa(len(result.CyclePaths))},
			{Label: "Dangling references", Value: strconv.Itoa(len(result.DanglingReferences))},
			{Label: "Warnings", Value: strconv.Itoa(len(result.Warnings))},
		},
		Tables: []Table{issues},
		Payload: validationView{
			Valid:    valid,
			Cycles:   result.CyclePaths,
			Errors:   result.Errors,
			Warnings: result.Warnings,
		},
	}
}

func lineErrorTable(lineErrors []dto.LineError) Table {
	table := Table{Name: "Errors", Header: []string{"Menu Item", "SKU", "Inventory Item", "Error"}}
	for _, lineError := range lineErrors {
		table.Rows = append(table.Rows, []string{string(lineError.MenuItemID), lineError.SKU, string(lineError.InventoryItemID), lineError.Message})
	}
	return table
}

func displayName(names Names, ref entities.ComponentRef) string {
	if names == nil {
		return ""
	}
	switch r := ref.(type) {
	case entities.InventoryItemRef:
		if item, err := names.GetInventoryItem(r.ID); err == nil {
			return item.Name
		}
	case entities.RecipeRef:
		if recipe, err := names.GetRecipe(r.ID); err == nil {
			return recipe.Name
		}
	}
	return ""
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(4)
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
