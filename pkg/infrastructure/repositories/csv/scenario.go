package csv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/domain/services"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
)

// Scenario file names within a scenario directory
const (
	UnitsFile       = "units.csv"
	ConversionsFile = "conversions.csv"
	ItemsFile       = "items.csv"
	RecipesFile     = "recipes.csv"
	ComponentsFile  = "components.csv"
	MenuItemsFile   = "menu_items.csv"
	SalesFile       = "sales.csv"
	CountsFile      = "counts.csv"
	MovementsFile   = "movements.csv"
)

// LoadScenario reads a scenario directory into a fresh in-memory catalog. items.csv,
// recipes.csv and components.csv are required. Without units.csv the standard unit
// catalog and its culinary conversions are used.
func (l *Loader) LoadScenario(dir string) (*memory.Catalog, error) {
	catalog := memory.NewCatalog()

	if exists(filepath.Join(dir, UnitsFile)) {
		units, err := l.LoadUnits(filepath.Join(dir, UnitsFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadUnits(units); err != nil {
			return nil, fmt.Errorf("failed to load units: %w", err)
		}
	} else {
		if err := catalog.LoadUnits(services.StandardUnits()); err != nil {
			return nil, fmt.Errorf("failed to load standard units: %w", err)
		}
		if err := catalog.LoadConversions(services.StandardConversions()); err != nil {
			return nil, fmt.Errorf("failed to load standard conversions: %w", err)
		}
	}

	if exists(filepath.Join(dir, ConversionsFile)) {
		conversions, err := l.LoadConversions(filepath.Join(dir, ConversionsFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadConversions(conversions); err != nil {
			return nil, fmt.Errorf("failed to load conversions: %w", err)
		}
	}

	rows, err := l.LoadItems(filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, err
	}
	items, err := ResolveItems(rows, services.NewUnitNormalizer(catalog))
	if err != nil {
		return nil, err
	}
	if err := catalog.LoadInventoryItems(items); err != nil {
		return nil, fmt.Errorf("failed to load inventory items: %w", err)
	}

	recipes, err := l.LoadRecipes(filepath.Join(dir, RecipesFile), filepath.Join(dir, ComponentsFile))
	if err != nil {
		return nil, err
	}
	if err := catalog.LoadRecipes(recipes); err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	if exists(filepath.Join(dir, MenuItemsFile)) {
		menuItems, err := l.LoadMenuItems(filepath.Join(dir, MenuItemsFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadMenuItems(menuItems); err != nil {
			return nil, fmt.Errorf("failed to load menu items: %w", err)
		}
	}

	if exists(filepath.Join(dir, SalesFile)) {
		sales, err := l.LoadSales(filepath.Join(dir, SalesFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadSales(sales); err != nil {
			return nil, fmt.Errorf("failed to load sales: %w", err)
		}
	}

	if exists(filepath.Join(dir, CountsFile)) {
		counts, err := l.LoadCounts(filepath.Join(dir, CountsFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadCounts(counts); err != nil {
			return nil, fmt.Errorf("failed to load counts: %w", err)
		}
	}

	if exists(filepath.Join(dir, MovementsFile)) {
		movements, err := l.LoadMovements(filepath.Join(dir, MovementsFile))
		if err != nil {
			return nil, err
		}
		if err := catalog.LoadMovements(movements); err != nil {
			return nil, fmt.Errorf("failed to load movements: %w", err)
		}
	}

	return catalog, nil
}

// ResolveItems converts per-unit prices into per-base prices
func ResolveItems(rows []ItemRow, units *services.UnitNormalizer) ([]*entities.InventoryItem, error) {
	items := make([]*entities.InventoryItem, 0, len(rows))
	for _, row := range rows {
		pricePerBase, err := units.PricePerBaseUnit(row.Price, row.Unit)
		if err != nil {
			return nil, fmt.Errorf("failed to price inventory item %s: %w", row.ID, err)
		}
		item, err := entities.NewInventoryItem(row.ID, row.Name, pricePerBase, row.Unit, row.YieldPercent)
		if err != nil {
			return nil, fmt.Errorf("inventory item %s: %w", row.ID, err)
		}
		item.Active = row.Active
		items = append(items, item)
	}
	return items, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
