package repositories

import (
	"time"

	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// CountRepository provides inventory count snapshots
type CountRepository interface {
	GetCount(id entities.CountID) (*entities.InventoryCount, error)
	GetCounts(storeID entities.StoreID) ([]*entities.InventoryCount, error)
	LoadCounts(counts []*entities.InventoryCount) error
}

// MovementRepository provides receipts, waste and transfers between counts
type MovementRepository interface {
	// GetMovements returns movements for the store with from < At <= to
	GetMovements(storeID entities.StoreID, from, to time.Time) ([]*entities.StockMovement, error)
	LoadMovements(movements []*entities.StockMovement) error
}
