package memory

import (
	"sync"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
)

type conversionKey struct {
	from entities.UnitID
	to   entities.UnitID
}

// UnitRepository provides in-memory unit catalog storage
type UnitRepository struct {
	units       map[entities.UnitID]entities.Unit
	order       []entities.UnitID
	conversions map[conversionKey]entities.UnitConversion
	mutex       sync.RWMutex
}

// NewUnitRepository creates a new in-memory unit repository
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{
		units:       make(map[entities.UnitID]entities.Unit),
		conversions: make(map[conversionKey]entities.UnitConversion),
	}
}

// Verify interface compliance
var _ repositories.UnitRepository = (*UnitRepository)(nil)

// LoadUnits loads units into the repository
func (r *UnitRepository) LoadUnits(units []*entities.Unit) error {
	for _, unit := range units {
		r.AddUnit(*unit)
	}
	return nil
}

// LoadConversions loads explicit conversions into the repository
func (r *UnitRepository) LoadConversions(conversions []*entities.UnitConversion) error {
	for _, conversion := range conversions {
		r.AddConversion(*conversion)
	}
	return nil
}

// AddUnit adds or replaces a unit
func (r *UnitRepository) AddUnit(unit entities.Unit) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.units[unit.ID]; !exists {
		r.order = append(r.order, unit.ID)
	}
	r.units[unit.ID] = unit
}

// AddConversion adds or replaces the override for an ordered pair
func (r *UnitRepository) AddConversion(conversion entities.UnitConversion) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.conversions[conversionKey{from: conversion.From, to: conversion.To}] = conversion
}

// GetUnit returns a unit by id
func (r *UnitRepository) GetUnit(id entities.UnitID) (*entities.Unit, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	unit, exists := r.units[id]
	if !exists {
		return nil, &entities.UnknownUnitError{UnitID: id}
	}
	return &unit, nil
}

// GetAllUnits returns all units in insertion order
func (r *UnitRepository) GetAllUnits() ([]*entities.Unit, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	units := make([]*entities.Unit, 0, len(r.order))
	for _, id := range r.order {
		unit := r.units[id]
		units = append(units, &unit)
	}
	return units, nil
}

// GetConversion returns the explicit override for the ordered pair
func (r *UnitRepository) GetConversion(from, to entities.UnitID) (*entities.UnitConversion, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	conversion, exists := r.conversions[conversionKey{from: from, to: to}]
	if !exists {
		return nil, false
	}
	return &conversion, true
}

// GetAllConversions returns all explicit overrides
func (r *UnitRepository) GetAllConversions() ([]*entities.UnitConversion, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	conversions := make([]*entities.UnitConversion, 0, len(r.conversions))
	for _, conversion := range r.conversions {
		c := conversion
		conversions = append(conversions, &c)
	}
	return conversions, nil
}
