package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/variance"
	"github.com/vsinha/recipecost/pkg/domain/entities"
	"github.com/vsinha/recipecost/pkg/interfaces/cli/output"
)

// VarianceConfig holds configuration for the variance command
type VarianceConfig struct {
	Config
	StoreID             string
	PreviousCountID     string
	CurrentCountID      string
	ItemID              string
	ExcludePlaceholders bool
}

// VarianceCommand reconciles theoretical against actual usage between two counts
type VarianceCommand struct {
	config VarianceConfig
}

// NewVarianceCommand creates a new variance command with the given configuration
func NewVarianceCommand(config VarianceConfig) *VarianceCommand {
	return &VarianceCommand{
		config: config,
	}
}

// Execute runs the variance command
func (c *VarianceCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	source, err := c.config.openDataSource(ctx)
	if err != nil {
		return err
	}
	defer source.Close()

	engine := variance.NewEngineWithOptions(source.catalog, variance.Options{
		ExcludePlaceholders: c.config.ExcludePlaceholders,
	})

	query := dto.VarianceQuery{
		StoreID:         entities.StoreID(c.config.StoreID),
		PreviousCountID: entities.CountID(c.config.PreviousCountID),
		CurrentCountID:  entities.CountID(c.config.CurrentCountID),
	}
	if c.config.ItemID != "" {
		itemID := entities.ItemID(c.config.ItemID)
		query.TargetItemID = &itemID
	}

	if c.config.Verbose {
		fmt.Printf("📊 Reconciling %s between %s and %s...\n", query.StoreID, query.PreviousCountID, query.CurrentCountID)
	}

	startTime := time.Now()
	result, err := engine.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("error computing variance: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Variance computed in %v\n\n", time.Since(startTime))
	}

	var doc *output.Document
	if result.Detail != nil {
		doc = output.DetailDocument(result.Detail)
	} else {
		doc = output.VarianceDocument(result.Report)
		if c.config.Verbose && len(result.Report.Errors) > 0 {
			fmt.Printf("⚠️  %d lines could not be reconciled\n\n", len(result.Report.Errors))
		}
	}

	if err := output.Generate(doc, c.config.outputConfig()); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}

func (c *VarianceCommand) validateInputs() error {
	if err := c.config.validate(); err != nil {
		return err
	}
	if c.config.StoreID == "" {
		return fmt.Errorf("-store is required")
	}
	if c.config.PreviousCountID == "" || c.config.CurrentCountID == "" {
		return fmt.Errorf("-prev and -curr are required")
	}
	return nil
}

// showHelp displays the help message
func (c *VarianceCommand) showHelp() {
	fmt.Printf(`recipecost variance - Compare theoretical and actual usage between two counts

USAGE:
    recipecost variance -store <id> -prev <count> -curr <count> [-item <id>] ...

OPTIONS:
    -store <id>             Store whose counts and sales are reconciled
    -prev <count>           Opening inventory count
    -curr <count>           Closing inventory count
    -item <id>              Drill into one inventory item's theoretical usage by menu item
    -exclude-placeholders   Leave placeholder recipes out of theoretical usage
%s
Sales after the opening count up to and including the closing count are attributed.
Actual usage is opening + receipts + transfers in - transfers out - closing.

EXAMPLES:
    recipecost variance -scenario scenarios/pizzeria -store store-1 -prev count-open -curr count-close
    recipecost variance -db recipecost.db -store store-1 -prev c1 -curr c2 -item cheese
`, sharedOptions)
}
