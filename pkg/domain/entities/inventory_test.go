package entities

import (
	"testing"
	"time"
)

func TestInventoryCount_Validation(t *testing.T) {
	takenAt := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	count, err := NewInventoryCount("count-1", "store-1", takenAt)
	if err != nil {
		t.Fatalf("Expected valid count creation to succeed: %v", err)
	}
	if err := count.Set("flour", 12.5); err != nil {
		t.Fatalf("Failed to set quantity: %v", err)
	}
	if count.Quantity("flour") != 12.5 {
		t.Errorf("Expected 12.5 flour, got %g", count.Quantity("flour"))
	}
	if count.Quantity("cheese") != 0 {
		t.Errorf("Expected uncounted item to read as zero, got %g", count.Quantity("cheese"))
	}
	if err := count.Set("flour", -1); err == nil {
		t.Error("Expected error for negative counted quantity")
	}

	testCases := []struct {
		name    string
		id      CountID
		storeID StoreID
		takenAt time.Time
	}{
		{"empty id", "", "store-1", takenAt},
		{"empty store", "count-1", "", takenAt},
		{"zero timestamp", "count-1", "store-1", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewInventoryCount(tc.id, tc.storeID, tc.takenAt); err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
		})
	}
}

func TestStockMovement_Inflow(t *testing.T) {
	at := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		kind     MovementKind
		expected float64
	}{
		{Receipt, 5},
		{TransferIn, 5},
		{TransferOut, -5},
		{Waste, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			movement, err := NewStockMovement("store-1", "flour", tc.kind, 5, at)
			if err != nil {
				t.Fatalf("Failed to create movement: %v", err)
			}
			if movement.Inflow() != tc.expected {
				t.Errorf("Expected inflow %g, got %g", tc.expected, movement.Inflow())
			}
		})
	}

	if _, err := NewStockMovement("store-1", "flour", Receipt, -1, at); err == nil {
		t.Error("Expected error for negative movement quantity")
	}
}

func TestParseMovementKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected MovementKind
	}{
		{"receipt", Receipt},
		{"Waste", Waste},
		{"transfer_in", TransferIn},
		{" TRANSFER_OUT ", TransferOut},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			kind, err := ParseMovementKind(tc.input)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if kind != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, kind)
			}
		})
	}

	if _, err := ParseMovementKind("theft"); err == nil {
		t.Error("Expected error for unknown movement kind")
	}
}
