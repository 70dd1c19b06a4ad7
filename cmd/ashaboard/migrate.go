package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/ashaboard/ashaboard/internal/platform"
)

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		down        bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables read by the postgres seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := firstNonEmpty(databaseURL, os.Getenv("DATABASE_URL"))
			if url == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return runMigrate(cmd.OutOrStdout(), url, down)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default: $DATABASE_URL)")
	cmd.Flags().BoolVar(&down, "down", false, "Drop the seed tables instead")

	return cmd
}

func runMigrate(w io.Writer, databaseURL string, down bool) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if down {
		if err := platform.DropSeedSchema(db); err != nil {
			return err
		}
		fmt.Fprintln(w, "seed tables dropped")
		return nil
	}
	if err := platform.MigrateSeedSchema(db); err != nil {
		return err
	}
	fmt.Fprintf(w, "seed schema at version %d\n", platform.SeedSchemaVersion)
	return nil
}
