package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/sqlite"
)

// ImportCommand loads a CSV scenario into a tenant of the SQLite database,
// replacing whatever that tenant held before
type ImportCommand struct {
	config Config
}

// NewImportCommand creates a new import command with the given configuration
func NewImportCommand(config Config) *ImportCommand {
	return &ImportCommand{
		config: config,
	}
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("📂 Loading scenario from %s...\n", c.config.ScenarioDir)
	}
	catalog, err := csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	c.config.printStats(catalog)

	store, err := sqlite.Open(c.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := store.ImportCatalog(ctx, memory.TenantID(c.config.Tenant), catalog); err != nil {
		return fmt.Errorf("error importing scenario: %w", err)
	}

	stats := catalog.Stats()
	fmt.Printf("🏁 Imported %d items and %d recipes into tenant %s of %s\n",
		stats.Items, stats.Recipes, c.config.Tenant, c.config.DBPath)
	return nil
}

func (c *ImportCommand) validateInputs() error {
	if c.config.ScenarioDir == "" || c.config.DBPath == "" {
		return fmt.Errorf("import requires both -scenario and -db")
	}
	if c.config.Tenant == "" {
		return fmt.Errorf("-tenant cannot be empty")
	}
	if _, err := os.Stat(c.config.ScenarioDir); err != nil {
		return fmt.Errorf("scenario directory not found: %s", c.config.ScenarioDir)
	}
	return nil
}

// showHelp displays the help message
func (c *ImportCommand) showHelp() {
	fmt.Printf(`recipecost import - Load a CSV scenario into a SQLite tenant

USAGE:
    recipecost import -scenario <dir> -db <file> [-tenant <tenant>]

OPTIONS:
%s
SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── units.csv          # Units of measure (optional, standard units otherwise)
    ├── conversions.csv    # Explicit unit conversions (optional)
    ├── items.csv          # Inventory items
    ├── recipes.csv        # Recipe headers
    ├── components.csv     # Recipe component lines
    ├── menu_items.csv     # Menu items (optional)
    ├── sales.csv          # Point-of-sale lines (optional)
    ├── counts.csv         # Inventory counts (optional)
    └── movements.csv      # Receipts, waste and transfers (optional)

CSV FILE FORMATS:

items.csv:
    id,name,unit,price,yield_percent,active
    flour,All-Purpose Flour,lb,0.50,100,true

recipes.csv:
    id,name,yield_qty,yield_unit,is_sub_recipe,is_placeholder,computed_cost
    dough,Pizza Dough,10,each,true,false,

components.csv:
    recipe_id,position,component_type,component_id,quantity,unit
    dough,1,item,flour,2,lb
    pizza,1,recipe,dough,1,each
`, sharedOptions)
}
