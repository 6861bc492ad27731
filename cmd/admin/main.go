// Command admin is the operational CLI: hash API tokens, inspect linked
// items, and run syncs outside the scheduler.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"centavo/internal/domain/notification"
	"centavo/internal/domain/plaidsync"
	"centavo/internal/infrastructure/plaid"
	"centavo/internal/infrastructure/postgres"
	"centavo/internal/shared/auth"
	"centavo/internal/shared/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "centavo-admin",
		Short: "Management commands for the centavo API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(tokenCmd(), itemsCmd(), syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API token helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "hash <token>",
		Short: "Print the bcrypt hash of a token for API_TOKEN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashToken(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	})

	return cmd
}

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect linked items",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List linked items with sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := postgres.NewItemRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}

			for _, it := range items {
				institution := "-"
				if it.InstitutionName != nil {
					institution = *it.InstitutionName
				}
				cursorState := "none (backfill pending)"
				if it.SyncCursor != nil {
					cursorState = "present"
				}
				lastSync := "never"
				if it.LastSyncAt != nil {
					lastSync = it.LastSyncAt.Format(time.RFC3339)
				}
				fmt.Printf("%s\t%s\tstatus=%s\tcursor=%s\tlast_sync=%s\n",
					it.ID, institution, it.Status, cursorState, lastSync)
			}
			fmt.Printf("%d item(s)\n", len(items))
			return nil
		},
	})

	return cmd
}

func syncCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sync [itemID]",
		Short: "Run a transaction sync for one item, or all with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide an item ID or --all")
			}

			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := newSyncService(cfg, db)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			if all {
				results, err := svc.SyncAllItems(ctx)
				if err != nil {
					return err
				}
				for _, result := range results {
					printResult(result)
				}
				return nil
			}

			result, err := svc.SyncItem(ctx, args[0])
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "sync every linked item")

	return cmd
}

func connect() (*config.Config, *postgres.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}

// newSyncService wires the sync stack without push notifications; CLI runs
// are interactive and the operator sees the output directly.
func newSyncService(cfg *config.Config, db *postgres.DB) *plaidsync.Service {
	itemRepo := postgres.NewItemRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	notificationService := notification.NewService(postgres.NewDeviceTokenRepository(db), nil)

	client := plaid.NewClient(cfg.Plaid.BaseURL, cfg.Plaid.ClientID, cfg.Plaid.Secret)
	engine := plaidsync.NewTransactionSyncEngine(
		client, accountRepo, transactionRepo, notificationService, cfg.Plaid.BackfillStartDate)

	return plaidsync.NewService(engine, itemRepo, notificationService)
}

func printResult(result *plaidsync.SyncResult) {
	fmt.Printf("item %s: accounts=%d added=%d modified=%d removed=%d signChanges=%d newCursor=%s\n",
		result.ItemID,
		result.Stats.AccountsUpdated,
		result.Stats.TransactionsAdded,
		result.Stats.TransactionsModified,
		result.Stats.TransactionsRemoved,
		result.Stats.SignChanges,
		result.NewCursor,
	)
}
