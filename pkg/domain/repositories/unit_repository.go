package repositories

import "github.com/vsinha/recipecost/pkg/domain/entities"

// UnitRepository provides access to the unit catalog and explicit conversion overrides
type UnitRepository interface {
	GetUnit(id entities.UnitID) (*entities.Unit, error)
	GetAllUnits() ([]*entities.Unit, error)
	// GetConversion returns the explicit override for the ordered pair, or false
	GetConversion(from, to entities.UnitID) (*entities.UnitConversion, bool)
	GetAllConversions() ([]*entities.UnitConversion, error)
	LoadUnits(units []*entities.Unit) error
	LoadConversions(conversions []*entities.UnitConversion) error
}
