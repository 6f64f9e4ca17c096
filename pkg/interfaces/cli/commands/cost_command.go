package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/recipecost/pkg/application/services/costing"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/interfaces/cli/output"
)

// CostConfig holds configuration for the cost command
type CostConfig struct {
	Config
	RecipeID string
}

// CostCommand computes one recipe's batch cost from scratch
type CostCommand struct {
	config CostConfig
}

// NewCostCommand creates a new cost command with the given configuration
func NewCostCommand(config CostConfig) *CostCommand {
	return &CostCommand{
		config: config,
	}
}

// Execute runs the cost command
func (c *CostCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.config.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if c.config.RecipeID == "" {
		return fmt.Errorf("validation error: -recipe is required")
	}

	source, err := c.config.openDataSource(ctx)
	if err != nil {
		return err
	}
	defer source.Close()

	if c.config.Verbose {
		fmt.Printf("💰 Costing recipe %s...\n", c.config.RecipeID)
	}

	calculator := costing.NewCalculator(source.catalog)
	startTime := time.Now()
	breakdown, err := calculator.ComputeCost(ctx, entities.RecipeID(c.config.RecipeID))
	if err != nil {
		return fmt.Errorf("error costing recipe %s: %w", c.config.RecipeID, err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Costing completed in %v\n\n", time.Since(startTime))
	}

	if err := output.Generate(output.CostDocument(breakdown, source.catalog), c.config.outputConfig()); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

// showHelp displays the help message
func (c *CostCommand) showHelp() {
	fmt.Printf(`recipecost cost - Compute a recipe's batch cost from scratch

USAGE:
    recipecost cost -scenario <dir> -recipe <id>
    recipecost cost -db <file> -tenant <tenant> -recipe <id>

OPTIONS:
    -recipe <id>        Recipe to cost
%s
EXAMPLES:
    recipecost cost -scenario scenarios/pizzeria -recipe pizza
    recipecost cost -db recipecost.db -tenant downtown -recipe dough -format json
`, sharedOptions)
}

// sharedOptions documents the flags every subcommand accepts
const sharedOptions = `    -scenario <dir>     Path to scenario directory containing CSV files
    -db <file>          Path to SQLite database (instead of -scenario)
    -tenant <tenant>    Tenant to read from the database (default: $RECIPECOST_TENANT or "default")
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv, msgpack, html (default: text)
    -verbose            Enable verbose output
    -help               Show this help message
`
