package services

import "github.com/vsinha/recipecost/pkg/domain/entities"

// StandardUnits returns the default catalog. Weight is based on grams, volume on
// milliliters and count on single pieces.
func StandardUnits() []*entities.Unit {
	return []*entities.Unit{
		{ID: "mg", Name: "Milligram", Abbreviation: "mg", Kind: entities.Weight, ToBaseRatio: 0.001, System: entities.Metric},
		{ID: "g", Name: "Gram", Abbreviation: "g", Kind: entities.Weight, ToBaseRatio: 1, System: entities.Metric},
		{ID: "kg", Name: "Kilogram", Abbreviation: "kg", Kind: entities.Weight, ToBaseRatio: 1000, System: entities.Metric},
		{ID: "oz", Name: "Ounce", Abbreviation: "oz", Kind: entities.Weight, ToBaseRatio: 28.349523125, System: entities.Imperial},
		{ID: "lb", Name: "Pound", Abbreviation: "lb", Kind: entities.Weight, ToBaseRatio: 453.59237, System: entities.Imperial},

		{ID: "ml", Name: "Milliliter", Abbreviation: "ml", Kind: entities.Volume, ToBaseRatio: 1, System: entities.Metric},
		{ID: "l", Name: "Liter", Abbreviation: "L", Kind: entities.Volume, ToBaseRatio: 1000, System: entities.Metric},
		{ID: "tsp", Name: "Teaspoon", Abbreviation: "tsp", Kind: entities.Volume, ToBaseRatio: 4.92892159375, System: entities.Imperial},
		{ID: "tbsp", Name: "Tablespoon", Abbreviation: "tbsp", Kind: entities.Volume, ToBaseRatio: 14.78676478125, System: entities.Imperial},
		{ID: "floz", Name: "Fluid Ounce", Abbreviation: "fl oz", Kind: entities.Volume, ToBaseRatio: 29.5735295625, System: entities.Imperial},
		{ID: "cup", Name: "Cup", Abbreviation: "cup", Kind: entities.Volume, ToBaseRatio: 236.5882365, System: entities.Imperial},
		{ID: "pt", Name: "Pint", Abbreviation: "pt", Kind: entities.Volume, ToBaseRatio: 473.176473, System: entities.Imperial},
		{ID: "qt", Name: "Quart", Abbreviation: "qt", Kind: entities.Volume, ToBaseRatio: 946.352946, System: entities.Imperial},
		{ID: "gal", Name: "Gallon", Abbreviation: "gal", Kind: entities.Volume, ToBaseRatio: 3785.411784, System: entities.Imperial},

		{ID: "each", Name: "Each", Abbreviation: "ea", Kind: entities.Count, ToBaseRatio: 1, System: entities.Both},
		{ID: "dozen", Name: "Dozen", Abbreviation: "dz", Kind: entities.Count, ToBaseRatio: 12, System: entities.Both},
	}
}

// StandardConversions returns culinary overrides that are authoritative over base ratios
func StandardConversions() []*entities.UnitConversion {
	return []*entities.UnitConversion{
		{From: "tsp", To: "tbsp", Factor: 1.0 / 3.0},
		{From: "tbsp", To: "tsp", Factor: 3},
		{From: "tbsp", To: "cup", Factor: 1.0 / 16.0},
		{From: "cup", To: "tbsp", Factor: 16},
	}
}
