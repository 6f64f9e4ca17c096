package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/vsinha/recipecost/pkg/application/dto"
	"github.com/vsinha/recipecost/pkg/application/services/propagation"
	"github.com/vsinha/recipecost/pkg/domain/repositories"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/recipecost/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/recipecost/pkg/interfaces/cli/output"
)

// RecalcConfig holds configuration for the recalc and recalc-all commands
type RecalcConfig struct {
	Config
	// Source is item:ID or recipe:ID; empty with All set recomputes every recipe
	Source         string
	All            bool
	Commit         bool
	MaxConcurrency int
}

// RecalcCommand propagates a price or recipe change to every dependent recipe
type RecalcCommand struct {
	config RecalcConfig
}

// NewRecalcCommand creates a new recalc command with the given configuration
func NewRecalcCommand(config RecalcConfig) *RecalcCommand {
	return &RecalcCommand{
		config: config,
	}
}

// Execute runs the recalc command
func (c *RecalcCommand) Execute(ctx context.Context) error {
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

	propagationConfig := propagation.DefaultConfig()
	if c.config.MaxConcurrency > 0 {
		propagationConfig.MaxConcurrency = c.config.MaxConcurrency
	}
	if c.config.Verbose {
		propagationConfig.Logger = log.New(os.Stderr, "recalc: ", log.LstdFlags)
	}
	propagator := propagation.NewPropagatorWithConfig(source.catalog, propagationConfig)

	var result *dto.RecalculationResult
	if c.config.All {
		if c.config.Verbose {
			fmt.Println("🔄 Recalculating every recipe...")
		}
		result, err = propagator.RecalculateAll(ctx)
	} else {
		ref, parseErr := csv.ParseSourceRef(c.config.Source)
		if parseErr != nil {
			return fmt.Errorf("validation error: %w", parseErr)
		}
		if c.config.Verbose {
			fmt.Printf("🔄 Propagating change to %s...\n", ref)
		}
		result, err = propagator.OnSourceChanged(ctx, ref)
	}
	if err != nil {
		return fmt.Errorf("error recalculating costs: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Recalculation completed in %v\n\n", result.Duration)
	}

	if c.config.Commit {
		var writer repositories.CostWriter = source.store.CostWriter(memory.TenantID(c.config.Tenant))
		if err := propagator.Commit(ctx, result, writer); err != nil {
			return fmt.Errorf("error committing costs: %w", err)
		}
		if c.config.Verbose {
			fmt.Printf("💾 Committed %d recipe costs for tenant %s\n\n", len(result.Updates), c.config.Tenant)
		}
	}

	if err := output.Generate(output.RecalculationDocument(result, c.config.Commit), c.config.outputConfig()); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d recipes failed to recalculate", len(result.Failures))
	}
	return nil
}

func (c *RecalcCommand) validateInputs() error {
	if err := c.config.validate(); err != nil {
		return err
	}
	if !c.config.All && c.config.Source == "" {
		return fmt.Errorf("-source is required (item:<id> or recipe:<id>)")
	}
	if c.config.All && c.config.Source != "" {
		return fmt.Errorf("-source cannot be combined with recalc-all")
	}
	if c.config.Commit && c.config.DBPath == "" {
		return fmt.Errorf("-commit requires -db; CSV scenarios are read-only")
	}
	return nil
}

// showHelp displays the help message
func (c *RecalcCommand) showHelp() {
	fmt.Printf(`recipecost recalc - Propagate a cost change through dependent recipes

USAGE:
    recipecost recalc -source item:<id> [-commit] ...
    recipecost recalc -source recipe:<id> [-commit] ...
    recipecost recalc-all [-commit] ...

OPTIONS:
    -source <ref>       Changed inventory item (item:<id>) or recipe (recipe:<id>)
    -commit             Persist updated costs to the database in one transaction
    -concurrency <n>    Recipes evaluated in parallel within a layer (default: CPU count)
%s
Without -commit the run is a dry run: updated costs are reported but not saved.
Recipes whose cost fails are reported and skip their consumers; the command then
exits non-zero after printing the results.

EXAMPLES:
    recipecost recalc -scenario scenarios/pizzeria -source item:flour -verbose
    recipecost recalc -db recipecost.db -tenant downtown -source recipe:dough -commit
    recipecost recalc-all -db recipecost.db -tenant downtown -commit -format json
`, sharedOptions)
}
