package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// VarianceReport compares theoretical and actual consumption for every inventory item
// over the window between two counts
type VarianceReport struct {
	StoreID         entities.StoreID `json:"store_id" msgpack:"store_id"`
	PreviousCountID entities.CountID `json:"previous_count_id" msgpack:"previous_count_id"`
	CurrentCountID  entities.CountID `json:"current_count_id" msgpack:"current_count_id"`
	PeriodStart     time.Time        `json:"period_start" msgpack:"period_start"`
	PeriodEnd       time.Time        `json:"period_end" msgpack:"period_end"`

	Lines         []VarianceLine         `json:"lines" msgpack:"lines"`
	Contributions []MenuItemContribution `json:"contributions" msgpack:"contributions"`
	Errors        []LineError            `json:"errors,omitempty" msgpack:"errors,omitempty"`

	TotalTheoreticalCost decimal.Decimal `json:"total_theoretical_cost" msgpack:"total_theoretical_cost"`
	TotalActualCost      decimal.Decimal `json:"total_actual_cost" msgpack:"total_actual_cost"`
	TotalVarianceCost    decimal.Decimal `json:"total_variance_cost" msgpack:"total_variance_cost"`
}

// VarianceLine is one inventory item's reconciliation. Quantities are in the item's
// natural unit; positive variance means more was consumed than recipes predict.
type VarianceLine struct {
	InventoryItemID   entities.ItemID `json:"inventory_item_id" msgpack:"inventory_item_id"`
	InventoryItemName string          `json:"inventory_item_name" msgpack:"inventory_item_name"`
	UnitID            entities.UnitID `json:"unit_id" msgpack:"unit_id"`
	UnitName          string          `json:"unit_name" msgpack:"unit_name"`
	UnitAbbreviation  string          `json:"unit_abbreviation" msgpack:"unit_abbreviation"`

	PreviousOnHand float64 `json:"previous_on_hand" msgpack:"previous_on_hand"`
	Inflow         float64 `json:"inflow" msgpack:"inflow"`
	CurrentOnHand  float64 `json:"current_on_hand" msgpack:"current_on_hand"`
	RecordedWaste  float64 `json:"recorded_waste" msgpack:"recorded_waste"`
	ActualQty      float64 `json:"actual_qty" msgpack:"actual_qty"`
	TheoreticalQty float64 `json:"theoretical_qty" msgpack:"theoretical_qty"`
	VarianceQty    float64 `json:"variance_qty" msgpack:"variance_qty"`
	UnexplainedQty float64 `json:"unexplained_qty" msgpack:"unexplained_qty"`

	UnitCost        decimal.Decimal `json:"unit_cost" msgpack:"unit_cost"`
	ActualCost      decimal.Decimal `json:"actual_cost" msgpack:"actual_cost"`
	TheoreticalCost decimal.Decimal `json:"theoretical_cost" msgpack:"theoretical_cost"`
	VarianceCost    decimal.Decimal `json:"variance_cost" msgpack:"variance_cost"`

	// IncludesPlaceholder is set when any theoretical usage came from a placeholder recipe
	IncludesPlaceholder bool `json:"includes_placeholder" msgpack:"includes_placeholder"`
}

// MenuItemContribution summarizes one sold menu item in the window
type MenuItemContribution struct {
	MenuItemID      entities.MenuItemID `json:"menu_item_id" msgpack:"menu_item_id"`
	MenuItemName    string              `json:"menu_item_name" msgpack:"menu_item_name"`
	SKU             string              `json:"sku" msgpack:"sku"`
	RecipeID        entities.RecipeID   `json:"recipe_id" msgpack:"recipe_id"`
	QtySold         float64             `json:"qty_sold" msgpack:"qty_sold"`
	TheoreticalCost decimal.Decimal     `json:"theoretical_cost" msgpack:"theoretical_cost"`
	Placeholder     bool                `json:"placeholder" msgpack:"placeholder"`
}

// LineError annotates a menu item whose usage could not be computed, or an inventory
// item that could not be reconciled
type LineError struct {
	MenuItemID      entities.MenuItemID `json:"menu_item_id,omitempty" msgpack:"menu_item_id,omitempty"`
	SKU             string              `json:"sku,omitempty" msgpack:"sku,omitempty"`
	InventoryItemID entities.ItemID     `json:"inventory_item_id,omitempty" msgpack:"inventory_item_id,omitempty"`
	Message         string              `json:"message" msgpack:"message"`
	Err             error               `json:"-" msgpack:"-"`
}

// TheoreticalDetail is the drill-down for one inventory item
type TheoreticalDetail struct {
	Summary   TheoreticalSummary `json:"summary" msgpack:"summary"`
	MenuItems []MenuItemUsage    `json:"menuItems" msgpack:"menuItems"`
	Errors    []LineError        `json:"errors,omitempty" msgpack:"errors,omitempty"`
}

type TheoreticalSummary struct {
	InventoryItemID   entities.ItemID `json:"inventoryItemId" msgpack:"inventoryItemId"`
	InventoryItemName string          `json:"inventoryItemName" msgpack:"inventoryItemName"`
	TotalQty          float64         `json:"totalQty" msgpack:"totalQty"`
	TotalCost         decimal.Decimal `json:"totalCost" msgpack:"totalCost"`
	UnitName          string          `json:"unitName" msgpack:"unitName"`
	UnitAbbreviation  string          `json:"unitAbbreviation" msgpack:"unitAbbreviation"`
}

// MenuItemUsage is one menu item's contribution to the target item's usage
type MenuItemUsage struct {
	MenuItemID     entities.MenuItemID `json:"menuItemId" msgpack:"menuItemId"`
	MenuItemName   string              `json:"menuItemName" msgpack:"menuItemName"`
	QtySold        float64             `json:"qtySold" msgpack:"qtySold"`
	TheoreticalQty float64             `json:"theoreticalQty" msgpack:"theoreticalQty"`
	Cost           decimal.Decimal     `json:"cost" msgpack:"cost"`
	Placeholder    bool                `json:"placeholder,omitempty" msgpack:"placeholder,omitempty"`
}

// UsagePerSale is the target quantity consumed by one unit sold, 0 when nothing sold
func (u MenuItemUsage) UsagePerSale() float64 {
	if u.QtySold == 0 {
		return 0
	}
	return u.TheoreticalQty / u.QtySold
}

// VarianceQuery selects a full report, or a drill-down when TargetItemID is set
type VarianceQuery struct {
	StoreID         entities.StoreID
	PreviousCountID entities.CountID
	CurrentCountID  entities.CountID
	TargetItemID    *entities.ItemID
}

// VarianceQueryResult holds exactly one of Report or Detail
type VarianceQueryResult struct {
	Report *VarianceReport
	Detail *TheoreticalDetail
}
