package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemID identifies a purchasable inventory item
type ItemID string

// InventoryItem is a raw ingredient or supply that is purchased, counted and consumed.
// PricePerBaseUnit is expressed per micro-unit of the natural unit's kind.
type InventoryItem struct {
	ID               ItemID
	Name             string
	PricePerBaseUnit decimal.Decimal
	Unit             UnitID
	YieldPercent     float64
	Active           bool
}

// NewInventoryItem creates a validated, active InventoryItem
func NewInventoryItem(id ItemID, name string, pricePerBaseUnit decimal.Decimal, unit UnitID, yieldPercent float64) (*InventoryItem, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("inventory item id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("inventory item name cannot be empty")
	}
	if string(unit) == "" {
		return nil, fmt.Errorf("inventory item unit cannot be empty")
	}
	if pricePerBaseUnit.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative, got %s", pricePerBaseUnit)
	}
	if yieldPercent < 0 || yieldPercent > 100 {
		return nil, fmt.Errorf("yield percent must be between 0 and 100, got %g", yieldPercent)
	}

	return &InventoryItem{
		ID:               id,
		Name:             name,
		PricePerBaseUnit: pricePerBaseUnit,
		Unit:             unit,
		YieldPercent:     yieldPercent,
		Active:           true,
	}, nil
}

// YieldFraction returns the usable fraction after trim and waste.
// A zero or out-of-range yield is an authoring error and is reported before any division.
func (i *InventoryItem) YieldFraction() (float64, error) {
	if i.YieldPercent <= 0 || i.YieldPercent > 100 {
		return 0, &InvalidYieldPercentError{ItemID: i.ID, YieldPercent: i.YieldPercent}
	}
	return i.YieldPercent / 100, nil
}
