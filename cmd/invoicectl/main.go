// invoicectl is the administrative CLI. It operates directly on the
// invoice database, bypassing tool validation via the advance path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/garyjia/invoice-automation/internal/audit"
	"github.com/garyjia/invoice-automation/internal/bus"
	"github.com/garyjia/invoice-automation/internal/domain/lifecycle"
	"github.com/garyjia/invoice-automation/internal/orchestrator"
	"github.com/garyjia/invoice-automation/internal/store"
	"github.com/garyjia/invoice-automation/pkg/database"
	"github.com/garyjia/invoice-automation/pkg/utils"
)

const usage = `Usage: invoicectl [-db path] <command> [arguments]

Commands:
  create <invoice-id> <customer-id>   register a new invoice
  state <invoice-id>                  print the invoice snapshot
  actions <invoice-id>                list the legal triggers
  advance <invoice-id> <trigger>      apply a trigger directly
  list [state]                        list invoices, optionally by state
`

func main() {
	dbPath := flag.String("db", "data/invoices.db", "path to the invoice database")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      "error",
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{Path: *dbPath}, logger)
	if err != nil {
		fatal("open database: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).RunMigrations(); err != nil {
		fatal("run migrations: %v", err)
	}

	invoiceStore := store.NewSQLiteStore(db.DB, logger)
	orch := orchestrator.New(invoiceStore, bus.New(), audit.NewLog(logger), logger)

	ctx := context.Background()
	if err := run(ctx, orch, args); err != nil {
		fatal("%v", err)
	}
}

func run(ctx context.Context, orch *orchestrator.Orchestrator, args []string) error {
	switch args[0] {
	case "create":
		if len(args) != 3 {
			return fmt.Errorf("usage: invoicectl create <invoice-id> <customer-id>")
		}
		snap, err := orch.CreateInvoice(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		return printJSON(snap)

	case "state":
		if len(args) != 2 {
			return fmt.Errorf("usage: invoicectl state <invoice-id>")
		}
		snap, err := orch.InvoiceState(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(snap)

	case "actions":
		if len(args) != 2 {
			return fmt.Errorf("usage: invoicectl actions <invoice-id>")
		}
		actions, err := orch.AvailableActions(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(actions)

	case "advance":
		if len(args) != 3 {
			return fmt.Errorf("usage: invoicectl advance <invoice-id> <trigger>")
		}
		result, err := orch.Advance(ctx, args[1], lifecycle.Trigger(args[2]))
		if err != nil {
			return err
		}
		return printJSON(result)

	case "list":
		var state lifecycle.State
		if len(args) > 1 {
			state = lifecycle.State(args[1])
			if !state.IsValid() {
				return fmt.Errorf("unknown state '%s'", args[1])
			}
		}
		snaps, err := orch.ListInvoices(ctx, state)
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			fmt.Printf("%s\t%s\t%s\n", snap.InvoiceID, snap.CurrentState, snap.CustomerID)
		}
		return nil

	default:
		return fmt.Errorf("unknown command '%s'", args[0])
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
