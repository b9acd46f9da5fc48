package main

import (
	"fmt"

	"github.com/fentz26/faultdrill/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the work-order store to the current schema",
	Long:  `Creates the work-order store if it is missing and reconciles an existing one with the canonical columns. Rows keep their values; columns that are no longer used are dropped and missing ones are added empty. Running it again changes nothing.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.EnsureSchema(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if a.sqlite != nil {
		v, dirty, err := a.sqlite.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Database: %s (schema version %d, dirty %v)\n", cfg.Path(cfg.Store.SQLitePath), v, dirty)
	} else {
		fmt.Fprintf(out, "Work orders: %s\n", cfg.Path(cfg.Store.CSVPath))
	}
	fmt.Fprintf(out, "Columns: %d (%s ... %s)\n", len(store.Columns), store.Columns[0], store.Columns[len(store.Columns)-1])
	return nil
}
