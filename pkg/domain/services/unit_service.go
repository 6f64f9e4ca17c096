package services

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

// Epsilon is the relative tolerance used when comparing unit quantities
const Epsilon = 1e-9

// ApproxEqual compares two quantities within Epsilon, relative to their magnitude
func ApproxEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Epsilon*scale
}

// UnitNormalizer converts quantities between units and the kind's base micro-unit.
// It is a pure function of the catalog it was built from.
type UnitNormalizer struct {
	units repositories.UnitRepository
}

// NewUnitNormalizer creates a normalizer over a unit catalog
func NewUnitNormalizer(units repositories.UnitRepository) *UnitNormalizer {
	return &UnitNormalizer{units: units}
}

// Unit resolves a unit id, reporting UnknownUnitError when it is missing
func (n *UnitNormalizer) Unit(id entities.UnitID) (*entities.Unit, error) {
	unit, err := n.units.GetUnit(id)
	if err != nil {
		var unknown *entities.UnknownUnitError
		if errors.As(err, &unknown) {
			return nil, err
		}
		return nil, &entities.UnknownUnitError{UnitID: id}
	}
	return unit, nil
}

// ToBase expresses quantity of unit in the kind's micro-unit
func (n *UnitNormalizer) ToBase(quantity float64, id entities.UnitID) (float64, error) {
	unit, err := n.Unit(id)
	if err != nil {
		return 0, err
	}
	return quantity * unit.ToBaseRatio, nil
}

// FromBase expresses a micro-unit quantity in unit
func (n *UnitNormalizer) FromBase(baseQuantity float64, id entities.UnitID) (float64, error) {
	unit, err := n.Unit(id)
	if err != nil {
		return 0, err
	}
	return baseQuantity / unit.ToBaseRatio, nil
}

// Convert expresses quantity of from in to. An explicit override for the exact ordered
// pair wins; otherwise units of the same kind convert through their base ratios.
func (n *UnitNormalizer) Convert(quantity float64, from, to entities.UnitID) (float64, error) {
	fromUnit, err := n.Unit(from)
	if err != nil {
		return 0, err
	}
	toUnit, err := n.Unit(to)
	if err != nil {
		return 0, err
	}

	if from == to {
		return quantity, nil
	}

	if conversion, ok := n.units.GetConversion(from, to); ok {
		return quantity * conversion.Factor, nil
	}

	if fromUnit.Kind != toUnit.Kind {
		return 0, &entities.IncompatibleUnitKindsError{
			From:     from,
			To:       to,
			FromKind: fromUnit.Kind,
			ToKind:   toUnit.Kind,
		}
	}

	return quantity * fromUnit.ToBaseRatio / toUnit.ToBaseRatio, nil
}

// PricePerBaseUnit turns a price quoted per unit into a price per micro-unit
func (n *UnitNormalizer) PricePerBaseUnit(price decimal.Decimal, id entities.UnitID) (decimal.Decimal, error) {
	unit, err := n.Unit(id)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Div(decimal.NewFromFloat(unit.ToBaseRatio)), nil
}

// PricePerUnit turns a per-micro-unit price back into a price quoted per unit
func (n *UnitNormalizer) PricePerUnit(pricePerBase decimal.Decimal, id entities.UnitID) (decimal.Decimal, error) {
	unit, err := n.Unit(id)
	if err != nil {
		return decimal.Zero, err
	}
	return pricePerBase.Mul(decimal.NewFromFloat(unit.ToBaseRatio)), nil
}
