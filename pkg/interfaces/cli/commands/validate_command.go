package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/recipecost/pkg/application/services/bomgraph"
	"github.com/vsinha/recipecost/pkg/interfaces/cli/output"
)

// ValidateCommand reports structural problems across the recipe catalog
type ValidateCommand struct {
	config Config
}

// NewValidateCommand creates a new validate command with the given configuration
func NewValidateCommand(config Config) *ValidateCommand {
	return &ValidateCommand{
		config: config,
	}
}

// Execute runs the validate command
func (c *ValidateCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.config.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	source, err := c.config.openDataSource(ctx)
	if err != nil {
		return err
	}
	defer source.Close()

	if c.config.Verbose {
		fmt.Println("🔍 Validating recipe catalog...")
	}

	builder := bomgraph.NewBuilder(source.catalog, source.catalog)
	result, err := builder.ValidateAll(ctx)
	if err != nil {
		return fmt.Errorf("error validating catalog: %w", err)
	}

	if err := output.Generate(output.ValidationDocument(result), c.config.outputConfig()); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("catalog validation failed with %d errors", len(result.Errors))
	}
	return nil
}

// showHelp displays the help message
func (c *ValidateCommand) showHelp() {
	fmt.Printf(`recipecost validate - Check the recipe catalog for cycles and dangling references

USAGE:
    recipecost validate -scenario <dir>
    recipecost validate -db <file> -tenant <tenant>

OPTIONS:
%s
Cycles and dangling component references are errors. Duplicate components and
recipes used as components without the sub-recipe flag are warnings.
`, sharedOptions)
}
