package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/recipecost/pkg/domain/entities"
)

// Loader handles loading costing data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

var (
	unitsHeader       = []string{"id", "name", "abbreviation", "kind", "to_base_ratio", "system"}
	conversionsHeader = []string{"from_unit", "to_unit", "factor"}
	itemsHeader       = []string{"id", "name", "unit", "price", "yield_percent", "active"}
	recipesHeader     = []string{"id", "name", "yield_qty", "yield_unit", "is_sub_recipe", "is_placeholder", "computed_cost"}
	componentsHeader  = []string{"recipe_id", "position", "component_type", "component_id", "quantity", "unit"}
	menuItemsHeader   = []string{"id", "sku", "name", "recipe_id", "serving_qty", "serving_unit"}
	salesHeader       = []string{"store_id", "sku", "quantity", "sold_at"}
	countsHeader      = []string{"count_id", "store_id", "taken_at", "item_id", "quantity"}
	movementsHeader   = []string{"store_id", "item_id", "kind", "quantity", "at"}
)

// ItemRow is an inventory item as written in items.csv. Price is per natural unit and is
// converted to a per-base price once the unit catalog is known.
type ItemRow struct {
	ID           entities.ItemID
	Name         string
	Unit         entities.UnitID
	Price        decimal.Decimal
	YieldPercent float64
	Active       bool
}

// LoadUnits loads the unit catalog from a CSV file
func (l *Loader) LoadUnits(filename string) ([]*entities.Unit, error) {
	records, err := readRecords(filename, "units", unitsHeader)
	if err != nil {
		return nil, err
	}

	units := make([]*entities.Unit, 0, len(records))
	for i, record := range records {
		kind, err := entities.ParseUnitKind(record[3])
		if err != nil {
			return nil, fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		ratio, err := parseFloat("to_base_ratio", record[4])
		if err != nil {
			return nil, fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		system, err := entities.ParseMeasurementSystem(record[5])
		if err != nil {
			return nil, fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		unit, err := entities.NewUnit(entities.UnitID(record[0]), record[1], record[2], kind, ratio, system)
		if err != nil {
			return nil, fmt.Errorf("units CSV row %d: %w", i+2, err)
		}
		units = append(units, unit)
	}

	return units, nil
}

// LoadConversions loads explicit unit conversion overrides from a CSV file
func (l *Loader) LoadConversions(filename string) ([]*entities.UnitConversion, error) {
	records, err := readRecords(filename, "conversions", conversionsHeader)
	if err != nil {
		return nil, err
	}

	conversions := make([]*entities.UnitConversion, 0, len(records))
	for i, record := range records {
		factor, err := parseFloat("factor", record[2])
		if err != nil {
			return nil, fmt.Errorf("conversions CSV row %d: %w", i+2, err)
		}
		conversion, err := entities.NewUnitConversion(entities.UnitID(record[0]), entities.UnitID(record[1]), factor)
		if err != nil {
			return nil, fmt.Errorf("conversions CSV row %d: %w", i+2, err)
		}
		conversions = append(conversions, conversion)
	}

	return conversions, nil
}

// LoadItems loads inventory item rows from a CSV file
func (l *Loader) LoadItems(filename string) ([]ItemRow, error) {
	records, err := readRecords(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]ItemRow, 0, len(records))
	for i, record := range records {
		price, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: invalid price: %s", i+2, record[3])
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("items CSV row %d: price cannot be negative", i+2)
		}
		yieldPercent, err := parseFloat("yield_percent", record[4])
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		active, err := parseBool("active", record[5], true)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		if record[0] == "" || record[1] == "" || record[2] == "" {
			return nil, fmt.Errorf("items CSV row %d: id, name and unit are required", i+2)
		}
		rows = append(rows, ItemRow{
			ID:           entities.ItemID(record[0]),
			Name:         record[1],
			Unit:         entities.UnitID(record[2]),
			Price:        price,
			YieldPercent: yieldPercent,
			Active:       active,
		})
	}

	return rows, nil
}

// LoadRecipes loads recipes from recipes.csv and attaches their lines from components.csv
func (l *Loader) LoadRecipes(recipesFile, componentsFile string) ([]*entities.Recipe, error) {
	records, err := readRecords(recipesFile, "recipes", recipesHeader)
	if err != nil {
		return nil, err
	}

	recipes := make([]*entities.Recipe, 0, len(records))
	byID := make(map[entities.RecipeID]*entities.Recipe, len(records))
	for i, record := range records {
		recipe, err := parseRecipe(record)
		if err != nil {
			return nil, fmt.Errorf("recipes CSV row %d: %w", i+2, err)
		}
		if _, exists := byID[recipe.ID]; exists {
			return nil, fmt.Errorf("recipes CSV row %d: duplicate recipe id %s", i+2, recipe.ID)
		}
		byID[recipe.ID] = recipe
		recipes = append(recipes, recipe)
	}

	components, err := readRecords(componentsFile, "components", componentsHeader)
	if err != nil {
		return nil, err
	}

	for i, record := range components {
		recipe, exists := byID[entities.RecipeID(record[0])]
		if !exists {
			return nil, fmt.Errorf("components CSV row %d: unknown recipe %s", i+2, record[0])
		}
		component, err := parseComponent(record)
		if err != nil {
			return nil, fmt.Errorf("components CSV row %d: %w", i+2, err)
		}
		recipe.Components = append(recipe.Components, *component)
	}

	for _, recipe := range recipes {
		sort.SliceStable(recipe.Components, func(i, j int) bool {
			return recipe.Components[i].Position < recipe.Components[j].Position
		})
	}

	return recipes, nil
}

// LoadMenuItems loads menu items from a CSV file
func (l *Loader) LoadMenuItems(filename string) ([]*entities.MenuItem, error) {
	records, err := readRecords(filename, "menu items", menuItemsHeader)
	if err != nil {
		return nil, err
	}

	items := make([]*entities.MenuItem, 0, len(records))
	for i, record := range records {
		var recipeID *entities.RecipeID
		if record[3] != "" {
			id := entities.RecipeID(record[3])
			recipeID = &id
		}
		servingQty := 0.0
		if record[4] != "" {
			servingQty, err = parseFloat("serving_qty", record[4])
			if err != nil {
				return nil, fmt.Errorf("menu items CSV row %d: %w", i+2, err)
			}
		}
		item, err := entities.NewMenuItem(entities.MenuItemID(record[0]), record[1], record[2], recipeID, servingQty, entities.UnitID(record[5]))
		if err != nil {
			return nil, fmt.Errorf("menu items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadSales loads POS sales lines from a CSV file
func (l *Loader) LoadSales(filename string) ([]*entities.SalesLine, error) {
	records, err := readRecords(filename, "sales", salesHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]*entities.SalesLine, 0, len(records))
	for i, record := range records {
		quantity, err := parseFloat("quantity", record[2])
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", i+2, err)
		}
		soldAt, err := parseTime("sold_at", record[3])
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", i+2, err)
		}
		if record[0] == "" || record[1] == "" {
			return nil, fmt.Errorf("sales CSV row %d: store_id and sku are required", i+2)
		}
		lines = append(lines, &entities.SalesLine{
			StoreID:  entities.StoreID(record[0]),
			SKU:      record[1],
			Quantity: quantity,
			SoldAt:   soldAt,
		})
	}

	return lines, nil
}

// LoadCounts loads inventory counts, one row per counted item
func (l *Loader) LoadCounts(filename string) ([]*entities.InventoryCount, error) {
	records, err := readRecords(filename, "counts", countsHeader)
	if err != nil {
		return nil, err
	}

	counts := make([]*entities.InventoryCount, 0)
	byID := make(map[entities.CountID]*entities.InventoryCount)
	for i, record := range records {
		countID := entities.CountID(record[0])
		takenAt, err := parseTime("taken_at", record[2])
		if err != nil {
			return nil, fmt.Errorf("counts CSV row %d: %w", i+2, err)
		}

		count, exists := byID[countID]
		if !exists {
			count, err = entities.NewInventoryCount(countID, entities.StoreID(record[1]), takenAt)
			if err != nil {
				return nil, fmt.Errorf("counts CSV row %d: %w", i+2, err)
			}
			byID[countID] = count
			counts = append(counts, count)
		} else if count.StoreID != entities.StoreID(record[1]) || !count.TakenAt.Equal(takenAt) {
			return nil, fmt.Errorf("counts CSV row %d: count %s has inconsistent store or timestamp", i+2, countID)
		}

		if record[3] == "" {
			continue
		}
		quantity, err := parseFloat("quantity", record[4])
		if err != nil {
			return nil, fmt.Errorf("counts CSV row %d: %w", i+2, err)
		}
		if err := count.Set(entities.ItemID(record[3]), quantity); err != nil {
			return nil, fmt.Errorf("counts CSV row %d: %w", i+2, err)
		}
	}

	return counts, nil
}

// LoadMovements loads receipts, waste and transfers from a CSV file
func (l *Loader) LoadMovements(filename string) ([]*entities.StockMovement, error) {
	records, err := readRecords(filename, "movements", movementsHeader)
	if err != nil {
		return nil, err
	}

	movements := make([]*entities.StockMovement, 0, len(records))
	for i, record := range records {
		kind, err := entities.ParseMovementKind(record[2])
		if err != nil {
			return nil, fmt.Errorf("movements CSV row %d: %w", i+2, err)
		}
		quantity, err := parseFloat("quantity", record[3])
		if err != nil {
			return nil, fmt.Errorf("movements CSV row %d: %w", i+2, err)
		}
		at, err := parseTime("at", record[4])
		if err != nil {
			return nil, fmt.Errorf("movements CSV row %d: %w", i+2, err)
		}
		movement, err := entities.NewStockMovement(entities.StoreID(record[0]), entities.ItemID(record[1]), kind, quantity, at)
		if err != nil {
			return nil, fmt.Errorf("movements CSV row %d: %w", i+2, err)
		}
		movements = append(movements, movement)
	}

	return movements, nil
}

// Helper functions for parsing CSV records

// readRecords returns the data rows of a file after checking its header and row widths
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := make([][]string, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
		rows = append(rows, record)
	}

	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		// Spreadsheet exports may prefix the first column with a byte order mark
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseRecipe(record []string) (*entities.Recipe, error) {
	yieldQty, err := parseFloat("yield_qty", record[2])
	if err != nil {
		return nil, err
	}
	recipe, err := entities.NewRecipe(entities.RecipeID(record[0]), record[1], yieldQty, entities.UnitID(record[3]))
	if err != nil {
		return nil, err
	}
	if recipe.IsSubRecipe, err = parseBool("is_sub_recipe", record[4], false); err != nil {
		return nil, err
	}
	if recipe.IsPlaceholder, err = parseBool("is_placeholder", record[5], false); err != nil {
		return nil, err
	}
	recipe.ComputedCost = decimal.Zero
	if record[6] != "" {
		cost, err := decimal.NewFromString(record[6])
		if err != nil {
			return nil, fmt.Errorf("invalid computed_cost: %s", record[6])
		}
		recipe.ComputedCost = cost
	}
	return recipe, nil
}

func parseComponent(record []string) (*entities.RecipeComponent, error) {
	position, err := strconv.Atoi(record[1])
	if err != nil {
		return nil, fmt.Errorf("invalid position: %s", record[1])
	}
	ref, err := parseComponentRef(record[2], record[3])
	if err != nil {
		return nil, err
	}
	quantity, err := parseFloat("quantity", record[4])
	if err != nil {
		return nil, err
	}
	return entities.NewRecipeComponent(position, ref, quantity, entities.UnitID(record[5]))
}

func parseComponentRef(kind, id string) (entities.ComponentRef, error) {
	switch strings.ToLower(kind) {
	case "item", "inventory_item":
		return entities.InventoryItemRef{ID: entities.ItemID(id)}, nil
	case "recipe":
		return entities.RecipeRef{ID: entities.RecipeID(id)}, nil
	default:
		return nil, fmt.Errorf("invalid component_type: %s (expected: item or recipe)", kind)
	}
}

// ParseSourceRef parses "item:ID" or "recipe:ID"
func ParseSourceRef(s string) (entities.ComponentRef, error) {
	kind, id, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || id == "" {
		return nil, fmt.Errorf("invalid source %q (expected item:ID or recipe:ID)", s)
	}
	return parseComponentRef(kind, id)
}

func parseFloat(field, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%s out of range: %s", field, value)
		}
		return 0, fmt.Errorf("invalid %s: %s", field, value)
	}
	return parsed, nil
}

func parseBool(field, value string, def bool) (bool, error) {
	switch strings.ToLower(value) {
	case "":
		return def, nil
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: %s (expected true or false)", field, value)
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

func parseTime(field, value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s format: %s (expected RFC3339 or YYYY-MM-DD)", field, value)
}
