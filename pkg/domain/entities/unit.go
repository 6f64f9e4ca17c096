package entities

import (
	"fmt"
	"strings"
)

// UnitID identifies a measurement unit within a tenant catalog
type UnitID string

// UnitKind groups units that can be converted into one another through a base micro-unit
type UnitKind int

const (
	Weight UnitKind = iota
	Volume
	Count
)

// String method for UnitKind enum
func (k UnitKind) String() string {
	switch k {
	case Weight:
		return "Weight"
	case Volume:
		return "Volume"
	case Count:
		return "Count"
	default:
		return "Unknown"
	}
}

// ParseUnitKind parses the textual form used by CSV and SQLite adapters
func ParseUnitKind(s string) (UnitKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weight":
		return Weight, nil
	case "volume":
		return Volume, nil
	case "count":
		return Count, nil
	default:
		return 0, fmt.Errorf("invalid unit kind: %s", s)
	}
}

// MeasurementSystem records which system a unit belongs to
type MeasurementSystem int

const (
	Imperial MeasurementSystem = iota
	Metric
	Both
)

// String method for MeasurementSystem enum
func (s MeasurementSystem) String() string {
	switch s {
	case Imperial:
		return "Imperial"
	case Metric:
		return "Metric"
	case Both:
		return "Both"
	default:
		return "Unknown"
	}
}

// ParseMeasurementSystem parses the textual form of a measurement system
func ParseMeasurementSystem(s string) (MeasurementSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "imperial":
		return Imperial, nil
	case "metric":
		return Metric, nil
	case "both", "":
		return Both, nil
	default:
		return 0, fmt.Errorf("invalid measurement system: %s", s)
	}
}

// Unit is a measurement unit. ToBaseRatio converts one unit into the kind's micro-unit
// (grams, milliliters or single pieces).
type Unit struct {
	ID           UnitID
	Name         string
	Abbreviation string
	Kind         UnitKind
	ToBaseRatio  float64
	System       MeasurementSystem
}

// NewUnit creates a validated Unit
func NewUnit(id UnitID, name, abbreviation string, kind UnitKind, toBaseRatio float64, system MeasurementSystem) (*Unit, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("unit id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("unit name cannot be empty")
	}
	if toBaseRatio <= 0 {
		return nil, fmt.Errorf("to-base ratio must be positive, got %g", toBaseRatio)
	}
	if abbreviation == "" {
		abbreviation = string(id)
	}

	return &Unit{
		ID:           id,
		Name:         name,
		Abbreviation: abbreviation,
		Kind:         kind,
		ToBaseRatio:  toBaseRatio,
		System:       system,
	}, nil
}

// UnitConversion is an explicit override for one ordered unit pair: to = from * Factor.
// It wins over base-ratio derivation for that pair.
type UnitConversion struct {
	From   UnitID
	To     UnitID
	Factor float64
}

// NewUnitConversion creates a validated UnitConversion
func NewUnitConversion(from, to UnitID, factor float64) (*UnitConversion, error) {
	if string(from) == "" || string(to) == "" {
		return nil, fmt.Errorf("conversion units cannot be empty")
	}
	if from == to {
		return nil, fmt.Errorf("conversion from and to units cannot be the same: %s", from)
	}
	if factor <= 0 {
		return nil, fmt.Errorf("conversion factor must be positive, got %g", factor)
	}

	return &UnitConversion{From: from, To: to, Factor: factor}, nil
}
