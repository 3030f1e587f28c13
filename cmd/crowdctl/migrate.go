package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/crowdfund-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, logger, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		applied, err := db.Migrate(cmd.Context(), conn, logger)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
		}
		return nil
	},
}
