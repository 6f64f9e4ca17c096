package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/recipecost/pkg/interfaces/cli/output"
)

// Config holds the data source and output settings shared by every subcommand
type Config struct {
	ScenarioDir string
	DBPath      string
	Tenant      string
	OutputDir   string
	Format      string
	Verbose     bool
	Help        bool
}

// LoadEnv reads an optional .env file; a missing file is not an error
func LoadEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// DefaultConfig returns the shared settings with environment overrides applied
func DefaultConfig() Config {
	return Config{
		ScenarioDir: getEnv("RECIPECOST_SCENARIO", ""),
		DBPath:      getEnv("RECIPECOST_DB", ""),
		Tenant:      getEnv("RECIPECOST_TENANT", "default"),
		Format:      getEnv("RECIPECOST_FORMAT", "text"),
	}
}

// RegisterFlags binds the shared settings to a subcommand's flag set
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ScenarioDir, "scenario", c.ScenarioDir, "Path to scenario directory containing CSV files")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Path to SQLite database")
	fs.StringVar(&c.Tenant, "tenant", c.Tenant, "Tenant whose data is read from the database")
	fs.StringVar(&c.OutputDir, "output", c.OutputDir, "Output directory for results (optional)")
	fs.StringVar(&c.Format, "format", c.Format, "Output format: text, json, csv, msgpack, html")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Enable verbose output")
	fs.BoolVar(&c.Help, "help", false, "Show help message")
}

// validate checks the shared settings
func (c *Config) validate() error {
	if c.ScenarioDir == "" && c.DBPath == "" {
		return fmt.Errorf("must specify either -scenario directory or -db database")
	}
	if c.ScenarioDir != "" && c.DBPath != "" {
		return fmt.Errorf("-scenario and -db are mutually exclusive")
	}
	if c.DBPath != "" && c.Tenant == "" {
		return fmt.Errorf("-tenant cannot be empty when reading from a database")
	}
	for _, format := range output.Formats {
		if c.Format == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported format: %s", c.Format)
}

func (c *Config) outputConfig() output.Config {
	return output.Config{
		Format:    c.Format,
		OutputDir: c.OutputDir,
		Verbose:   c.Verbose,
	}
}

// dataSource is a loaded tenant snapshot and, when read from SQLite, the open store
type dataSource struct {
	catalog *memory.Catalog
	store   *sqlite.Store
}

func (d *dataSource) Close() error {
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

// openDataSource loads the snapshot the subcommand operates on
func (c *Config) openDataSource(ctx context.Context) (*dataSource, error) {
	if c.DBPath != "" {
		if c.Verbose {
			fmt.Printf("📂 Loading tenant %s from %s...\n", c.Tenant, c.DBPath)
		}
		store, err := sqlite.Open(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		catalog, err := store.LoadCatalog(ctx, memory.TenantID(c.Tenant))
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load tenant %s: %w", c.Tenant, err)
		}
		c.printStats(catalog)
		return &dataSource{catalog: catalog, store: store}, nil
	}

	if c.Verbose {
		fmt.Printf("📂 Loading scenario from %s...\n", c.ScenarioDir)
	}
	if _, err := os.Stat(c.ScenarioDir); err != nil {
		return nil, fmt.Errorf("scenario directory not found: %s", c.ScenarioDir)
	}
	catalog, err := csv.NewLoader().LoadScenario(c.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}
	c.printStats(catalog)
	return &dataSource{catalog: catalog}, nil
}

func (c *Config) printStats(catalog *memory.Catalog) {
	if !c.Verbose {
		return
	}
	stats := catalog.Stats()
	fmt.Printf("✅ Data loaded successfully:\n")
	fmt.Printf("  Units: %d\n", stats.Units)
	fmt.Printf("  Conversions: %d\n", stats.Conversions)
	fmt.Printf("  Inventory Items: %d\n", stats.Items)
	fmt.Printf("  Recipes: %d\n", stats.Recipes)
	fmt.Printf("  Menu Items: %d\n", stats.MenuItems)
	fmt.Println()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
