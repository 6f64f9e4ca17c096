package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/vsinha/recipecost/pkg/interfaces/cli/commands"
)

// command is any subcommand the CLI dispatches to
type command interface {
	Execute(ctx context.Context) error
}

func main() {
	commands.LoadEnv()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name, args := os.Args[1], os.Args[2:]
	cmd, err := parse(name, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cmd == nil {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parse builds the named subcommand from its flags
func parse(name string, args []string) (command, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	base := commands.DefaultConfig()
	base.RegisterFlags(fs)

	switch name {
	case "cost":
		config := commands.CostConfig{}
		fs.StringVar(&config.RecipeID, "recipe", "", "Recipe to cost")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		config.Config = base
		return commands.NewCostCommand(config), nil

	case "recalc", "recalc-all":
		config := commands.RecalcConfig{All: name == "recalc-all"}
		if !config.All {
			fs.StringVar(&config.Source, "source", "", "Changed source: item:<id> or recipe:<id>")
		}
		fs.BoolVar(&config.Commit, "commit", false, "Persist updated costs to the database")
		fs.IntVar(&config.MaxConcurrency, "concurrency", 0, "Recipes evaluated in parallel within a layer")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		config.Config = base
		return commands.NewRecalcCommand(config), nil

	case "variance":
		config := commands.VarianceConfig{}
		fs.StringVar(&config.StoreID, "store", "", "Store to reconcile")
		fs.StringVar(&config.PreviousCountID, "prev", "", "Opening inventory count")
		fs.StringVar(&config.CurrentCountID, "curr", "", "Closing inventory count")
		fs.StringVar(&config.ItemID, "item", "", "Drill into one inventory item")
		fs.BoolVar(&config.ExcludePlaceholders, "exclude-placeholders", false, "Leave placeholder recipes out")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		config.Config = base
		return commands.NewVarianceCommand(config), nil

	case "validate":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewValidateCommand(base), nil

	case "import":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return commands.NewImportCommand(base), nil

	case "help", "-help", "--help", "-h":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

func usage() {
	fmt.Printf(`recipecost - Recipe costing and usage reconciliation

USAGE:
    recipecost <command> [options]

COMMANDS:
    cost          Compute a recipe's batch cost from scratch
    recalc        Propagate an item price or recipe change to dependent recipes
    recalc-all    Recompute every recipe's cost
    variance      Compare theoretical and actual usage between two counts
    validate      Check the recipe catalog for cycles and dangling references
    import        Load a CSV scenario into a SQLite tenant

Run 'recipecost <command> -help' for the options of a command.

ENVIRONMENT:
    RECIPECOST_SCENARIO   Default -scenario directory
    RECIPECOST_DB         Default -db path
    RECIPECOST_TENANT     Default -tenant (default: "default")
    RECIPECOST_FORMAT     Default -format (default: text)

A .env file in the working directory is read when present.
`)
}
