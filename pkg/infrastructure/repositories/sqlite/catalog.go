package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
)

const timeLayout = time.RFC3339Nano

// ImportCatalog replaces everything stored for tenant with the contents of catalog in
// one transaction
func (s *Store) ImportCatalog(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range tenantTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE tenant = ?", tenant); err != nil {
				return fmt.Errorf("failed to clear %s for tenant %s: %w", table, tenant, err)
			}
		}

		if err := importUnits(ctx, tx, tenant, catalog); err != nil {
			return err
		}
		if err := importItems(ctx, tx, tenant, catalog); err != nil {
			return err
		}
		if err := importRecipes(ctx, tx, tenant, catalog); err != nil {
			return err
		}
		if err := importMenu(ctx, tx, tenant, catalog); err != nil {
			return err
		}
		return importInventory(ctx, tx, tenant, catalog)
	})
}

func importUnits(ctx context.Context, tx *sql.Tx, tenant memory.TenantID, catalog *memory.Catalog) error {
	units, err := catalog.GetAllUnits()
	if err != nil {
		return fmt.Errorf("failed to get units: %w", err)
	}
	for i, unit := range units {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO units (tenant, id, name, abbreviation, kind, to_base_ratio, system, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tenant, unit.ID, unit.Name, unit.Abbreviation, unit.Kind.String(), unit.ToBaseRatio, unit.System.String(), i)
		if err != nil {
			return fmt.Errorf("failed to insert unit %s: %w", unit.ID, err)
		}
	}

	conversions, err := catalog.GetAllConversions()
	if err != nil {
		return fmt.Errorf("failed to get conversions: %w", err)
	}
	for _, conversion := range conversions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO unit_conversions (tenant, from_unit, to_unit, factor) VALUES (?, ?, ?, ?)`,
			tenant, conversion.From, conversion.To, conversion.Factor)
		if err != nil {
			return fmt.Errorf("failed to insert conversion %s->%s: %w", conversion.From, conversion.To, err)
		}
	}
	return nil
}

func importItems(ctx context.Context, tx *sql.Tx, tenant memory.TenantID, catalog *memory.Catalog) error {
	items, err := catalog.GetAllInventoryItems()
	if err != nil {
		return fmt.Errorf("failed to get inventory items: %w", err)
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_items (tenant, id, name, price_per_base_unit, unit, yield_percent, active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tenant, item.ID, item.Name, item.PricePerBaseUnit.String(), item.Unit, item.YieldPercent, item.Active)
		if err != nil {
			return fmt.Errorf("failed to insert inventory item %s: %w", item.ID, err)
		}
	}
	return nil
}

func importRecipes(ctx context.Context, tx *sql.Tx, tenant memory.TenantID, catalog *memory.Catalog) error {
	recipes, err := catalog.GetAllRecipes()
	if err != nil {
		return fmt.Errorf("failed to get recipes: %w", err)
	}
	for _, recipe := range recipes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (tenant, id, name, yield_qty, yield_unit, computed_cost, is_sub_recipe, is_placeholder) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tenant, recipe.ID, recipe.Name, recipe.YieldQty, recipe.YieldUnit, recipe.ComputedCost.String(), recipe.IsSubRecipe, recipe.IsPlaceholder)
		if err != nil {
			return fmt.Errorf("failed to insert recipe %s: %w", recipe.ID, err)
		}
		for _, component := range recipe.Components {
			kind, id := componentColumns(component.Ref)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO recipe_components (tenant, recipe_id, position, component_type, component_id, quantity, unit) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				tenant, recipe.ID, component.Position, kind, id, component.Quantity, component.Unit)
			if err != nil {
				return fmt.Errorf("failed to insert component %d of recipe %s: %w", component.Position, recipe.ID, err)
			}
		}
	}
	return nil
}

func importMenu(ctx context.Context, tx *sql.Tx, tenant memory.TenantID, catalog *memory.Catalog) error {
	menuItems, err := catalog.GetAllMenuItems()
	if err != nil {
		return fmt.Errorf("failed to get menu items: %w", err)
	}
	for _, menu := range menuItems {
		var recipeID sql.NullString
		if menu.HasRecipe() {
			recipeID = sql.NullString{String: string(*menu.RecipeID), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu_items (tenant, id, sku, name, recipe_id, serving_qty, serving_unit) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tenant, menu.ID, menu.SKU, menu.Name, recipeID, menu.ServingQty, menu.ServingUnit)
		if err != nil {
			return fmt.Errorf("failed to insert menu item %s: %w", menu.ID, err)
		}
	}

	for _, line := range catalog.AllSales() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sales_lines (tenant, id, store_id, sku, quantity, sold_at) VALUES (?, ?, ?, ?, ?, ?)`,
			tenant, uuid.New().String(), line.StoreID, line.SKU, line.Quantity, line.SoldAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert sales line for %s: %w", line.SKU, err)
		}
	}
	return nil
}

func importInventory(ctx context.Context, tx *sql.Tx, tenant memory.TenantID, catalog *memory.Catalog) error {
	for _, count := range catalog.AllCounts() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_counts (tenant, id, store_id, taken_at) VALUES (?, ?, ?, ?)`,
			tenant, count.ID, count.StoreID, count.TakenAt.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert count %s: %w", count.ID, err)
		}
		for itemID, quantity := range count.OnHand {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO inventory_count_lines (tenant, count_id, item_id, quantity) VALUES (?, ?, ?, ?)`,
				tenant, count.ID, itemID, quantity)
			if err != nil {
				return fmt.Errorf("failed to insert count %s line %s: %w", count.ID, itemID, err)
			}
		}
	}

	for _, movement := range catalog.AllMovements() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stock_movements (tenant, id, store_id, item_id, kind, quantity, at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tenant, uuid.New().String(), movement.StoreID, movement.ItemID, movement.Kind.String(), movement.Quantity, movement.At.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert movement for %s: %w", movement.ItemID, err)
		}
	}
	return nil
}

// LoadCatalog reads one tenant's data into a fresh in-memory snapshot
func (s *Store) LoadCatalog(ctx context.Context, tenant memory.TenantID) (*memory.Catalog, error) {
	catalog := memory.NewCatalog()

	loaders := []func(context.Context, memory.TenantID, *memory.Catalog) error{
		s.loadUnits,
		s.loadConversions,
		s.loadItems,
		s.loadRecipes,
		s.loadMenuItems,
		s.loadSales,
		s.loadCounts,
		s.loadMovements,
	}
	for _, load := range loaders {
		if err := load(ctx, tenant, catalog); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (s *Store) loadUnits(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, abbreviation, kind, to_base_ratio, system FROM units WHERE tenant = ? ORDER BY position`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, abbreviation, kind, system string
		var ratio float64
		if err := rows.Scan(&id, &name, &abbreviation, &kind, &ratio, &system); err != nil {
			return fmt.Errorf("failed to scan unit: %w", err)
		}
		unitKind, err := entities.ParseUnitKind(kind)
		if err != nil {
			return fmt.Errorf("unit %s: %w", id, err)
		}
		unitSystem, err := entities.ParseMeasurementSystem(system)
		if err != nil {
			return fmt.Errorf("unit %s: %w", id, err)
		}
		unit, err := entities.NewUnit(entities.UnitID(id), name, abbreviation, unitKind, ratio, unitSystem)
		if err != nil {
			return fmt.Errorf("unit %s: %w", id, err)
		}
		catalog.AddUnit(*unit)
	}
	return rows.Err()
}

func (s *Store) loadConversions(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_unit, to_unit, factor FROM unit_conversions WHERE tenant = ? ORDER BY from_unit, to_unit`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to string
		var factor float64
		if err := rows.Scan(&from, &to, &factor); err != nil {
			return fmt.Errorf("failed to scan conversion: %w", err)
		}
		catalog.AddConversion(entities.UnitConversion{From: entities.UnitID(from), To: entities.UnitID(to), Factor: factor})
	}
	return rows.Err()
}

func (s *Store) loadItems(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, price_per_base_unit, unit, yield_percent, active FROM inventory_items WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entities.InventoryItem
		var price string
		if err := rows.Scan(&item.ID, &item.Name, &price, &item.Unit, &item.YieldPercent, &item.Active); err != nil {
			return fmt.Errorf("failed to scan inventory item: %w", err)
		}
		if item.PricePerBaseUnit, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("inventory item %s: invalid price %q: %w", item.ID, price, err)
		}
		catalog.AddItem(item)
	}
	return rows.Err()
}

func (s *Store) loadRecipes(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, yield_qty, yield_unit, computed_cost, is_sub_recipe, is_placeholder FROM recipes WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query recipes: %w", err)
	}

	recipes := make([]*entities.Recipe, 0)
	byID := make(map[entities.RecipeID]*entities.Recipe)
	for rows.Next() {
		recipe := &entities.Recipe{}
		var cost string
		if err := rows.Scan(&recipe.ID, &recipe.Name, &recipe.YieldQty, &recipe.YieldUnit, &cost, &recipe.IsSubRecipe, &recipe.IsPlaceholder); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipe: %w", err)
		}
		if recipe.ComputedCost, err = decimal.NewFromString(cost); err != nil {
			rows.Close()
			return fmt.Errorf("recipe %s: invalid computed cost %q: %w", recipe.ID, cost, err)
		}
		recipes = append(recipes, recipe)
		byID[recipe.ID] = recipe
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	componentRows, err := s.db.QueryContext(ctx,
		`SELECT recipe_id, position, component_type, component_id, quantity, unit FROM recipe_components WHERE tenant = ? ORDER BY recipe_id, position`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query recipe components: %w", err)
	}
	defer componentRows.Close()

	for componentRows.Next() {
		var recipeID, kind, id, unit string
		var component entities.RecipeComponent
		if err := componentRows.Scan(&recipeID, &component.Position, &kind, &id, &component.Quantity, &unit); err != nil {
			return fmt.Errorf("failed to scan recipe component: %w", err)
		}
		recipe, exists := byID[entities.RecipeID(recipeID)]
		if !exists {
			return fmt.Errorf("component %d references unknown recipe %s", component.Position, recipeID)
		}
		ref, err := componentRef(kind, id)
		if err != nil {
			return fmt.Errorf("recipe %s position %d: %w", recipeID, component.Position, err)
		}
		component.Ref = ref
		component.Unit = entities.UnitID(unit)
		recipe.Components = append(recipe.Components, component)
	}
	if err := componentRows.Err(); err != nil {
		return err
	}

	return catalog.LoadRecipes(recipes)
}

func (s *Store) loadMenuItems(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sku, name, recipe_id, serving_qty, serving_unit FROM menu_items WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var menu entities.MenuItem
		var recipeID sql.NullString
		if err := rows.Scan(&menu.ID, &menu.SKU, &menu.Name, &recipeID, &menu.ServingQty, &menu.ServingUnit); err != nil {
			return fmt.Errorf("failed to scan menu item: %w", err)
		}
		if recipeID.Valid {
			id := entities.RecipeID(recipeID.String)
			menu.RecipeID = &id
		}
		if err := catalog.AddMenuItem(menu); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadSales(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT store_id, sku, quantity, sold_at FROM sales_lines WHERE tenant = ? ORDER BY sold_at, id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query sales lines: %w", err)
	}
	defer rows.Close()

	lines := make([]*entities.SalesLine, 0)
	for rows.Next() {
		var line entities.SalesLine
		var soldAt string
		if err := rows.Scan(&line.StoreID, &line.SKU, &line.Quantity, &soldAt); err != nil {
			return fmt.Errorf("failed to scan sales line: %w", err)
		}
		if line.SoldAt, err = time.Parse(timeLayout, soldAt); err != nil {
			return fmt.Errorf("sales line %s: invalid sold_at %q: %w", line.SKU, soldAt, err)
		}
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return catalog.LoadSales(lines)
}

func (s *Store) loadCounts(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, store_id, taken_at FROM inventory_counts WHERE tenant = ? ORDER BY id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query inventory counts: %w", err)
	}

	counts := make(map[entities.CountID]*entities.InventoryCount)
	order := make([]entities.CountID, 0)
	for rows.Next() {
		var id, storeID, takenAt string
		if err := rows.Scan(&id, &storeID, &takenAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan inventory count: %w", err)
		}
		at, err := time.Parse(timeLayout, takenAt)
		if err != nil {
			rows.Close()
			return fmt.Errorf("count %s: invalid taken_at %q: %w", id, takenAt, err)
		}
		counts[entities.CountID(id)] = &entities.InventoryCount{
			ID:      entities.CountID(id),
			StoreID: entities.StoreID(storeID),
			TakenAt: at,
			OnHand:  make(map[entities.ItemID]float64),
		}
		order = append(order, entities.CountID(id))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	lineRows, err := s.db.QueryContext(ctx,
		`SELECT count_id, item_id, quantity FROM inventory_count_lines WHERE tenant = ?`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query inventory count lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var countID, itemID string
		var quantity float64
		if err := lineRows.Scan(&countID, &itemID, &quantity); err != nil {
			return fmt.Errorf("failed to scan inventory count line: %w", err)
		}
		count, exists := counts[entities.CountID(countID)]
		if !exists {
			return fmt.Errorf("count line references unknown count %s", countID)
		}
		count.OnHand[entities.ItemID(itemID)] = quantity
	}
	if err := lineRows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		catalog.AddCount(counts[id])
	}
	return nil
}

func (s *Store) loadMovements(ctx context.Context, tenant memory.TenantID, catalog *memory.Catalog) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT store_id, item_id, kind, quantity, at FROM stock_movements WHERE tenant = ? ORDER BY at, id`, tenant)
	if err != nil {
		return fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*entities.StockMovement, 0)
	for rows.Next() {
		var movement entities.StockMovement
		var kind, at string
		if err := rows.Scan(&movement.StoreID, &movement.ItemID, &kind, &movement.Quantity, &at); err != nil {
			return fmt.Errorf("failed to scan stock movement: %w", err)
		}
		if movement.Kind, err = entities.ParseMovementKind(kind); err != nil {
			return fmt.Errorf("movement for %s: %w", movement.ItemID, err)
		}
		if movement.At, err = time.Parse(timeLayout, at); err != nil {
			return fmt.Errorf("movement for %s: invalid at %q: %w", movement.ItemID, at, err)
		}
		movements = append(movements, &movement)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return catalog.LoadMovements(movements)
}

func componentColumns(ref entities.ComponentRef) (string, string) {
	switch r := ref.(type) {
	case entities.InventoryItemRef:
		return "item", string(r.ID)
	case entities.RecipeRef:
		return "recipe", string(r.ID)
	default:
		return "unknown", ref.String()
	}
}

func componentRef(kind, id string) (entities.ComponentRef, error) {
	switch kind {
	case "item":
		return entities.InventoryItemRef{ID: entities.ItemID(id)}, nil
	case "recipe":
		return entities.RecipeRef{ID: entities.RecipeID(id)}, nil
	default:
		return nil, fmt.Errorf("invalid component type %s", kind)
	}
}
