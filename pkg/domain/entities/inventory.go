package entities

import (
	"fmt"
	"strings"
	"time"
)

// CountID identifies an inventory count
type CountID string

// InventoryCount is a snapshot of on-hand quantity per item, in each item's natural unit
type InventoryCount struct {
	ID      CountID
	StoreID StoreID
	TakenAt time.Time
	OnHand  map[ItemID]float64
}

// NewInventoryCount creates a validated, empty InventoryCount
func NewInventoryCount(id CountID, storeID StoreID, takenAt time.Time) (*InventoryCount, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("count id cannot be empty")
	}
	if string(storeID) == "" {
		return nil, fmt.Errorf("count store id cannot be empty")
	}
	if takenAt.IsZero() {
		return nil, fmt.Errorf("count timestamp cannot be zero")
	}

	return &InventoryCount{
		ID:      id,
		StoreID: storeID,
		TakenAt: takenAt,
		OnHand:  make(map[ItemID]float64),
	}, nil
}

// Set records the counted quantity for an item
func (c *InventoryCount) Set(itemID ItemID, quantity float64) error {
	if quantity < 0 {
		return fmt.Errorf("counted quantity for %s cannot be negative, got %g", itemID, quantity)
	}
	c.OnHand[itemID] = quantity
	return nil
}

// Quantity returns the counted quantity for an item, zero when it was not counted
func (c *InventoryCount) Quantity(itemID ItemID) float64 {
	return c.OnHand[itemID]
}

// MovementKind classifies a stock movement between two counts
type MovementKind int

const (
	Receipt MovementKind = iota
	Waste
	TransferIn
	TransferOut
)

// String method for MovementKind enum
func (k MovementKind) String() string {
	switch k {
	case Receipt:
		return "Receipt"
	case Waste:
		return "Waste"
	case TransferIn:
		return "TransferIn"
	case TransferOut:
		return "TransferOut"
	default:
		return "Unknown"
	}
}

// ParseMovementKind parses the textual form of a movement kind
func ParseMovementKind(s string) (MovementKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receipt":
		return Receipt, nil
	case "waste":
		return Waste, nil
	case "transfer_in", "transferin":
		return TransferIn, nil
	case "transfer_out", "transferout":
		return TransferOut, nil
	default:
		return 0, fmt.Errorf("invalid movement kind: %s", s)
	}
}

// StockMovement is a receipt, waste or transfer of an item, in its natural unit
type StockMovement struct {
	StoreID  StoreID
	ItemID   ItemID
	Kind     MovementKind
	Quantity float64
	At       time.Time
}

// NewStockMovement creates a validated StockMovement
func NewStockMovement(storeID StoreID, itemID ItemID, kind MovementKind, quantity float64, at time.Time) (*StockMovement, error) {
	if string(storeID) == "" {
		return nil, fmt.Errorf("movement store id cannot be empty")
	}
	if string(itemID) == "" {
		return nil, fmt.Errorf("movement item id cannot be empty")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("movement quantity cannot be negative, got %g", quantity)
	}

	return &StockMovement{
		StoreID:  storeID,
		ItemID:   itemID,
		Kind:     kind,
		Quantity: quantity,
		At:       at,
	}, nil
}

// Inflow returns the signed contribution of the movement to available stock.
// Waste is consumption, not inflow, and contributes zero here.
func (m *StockMovement) Inflow() float64 {
	switch m.Kind {
	case Receipt, TransferIn:
		return m.Quantity
	case TransferOut:
		return -m.Quantity
	default:
		return 0
	}
}
