// cmd/crowdctl is the operator tool: database migrations, YAML seeding and
// admin password hashing.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "crowdctl",
	Short:         "Operate the crowdfunding backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openDB loads config, builds a console logger and connects.
func openDB(ctx context.Context) (*sql.DB, *zap.Logger, error) {
	cfg, _, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, cfg.DB, logger)
	if err != nil {
		return nil, nil, err
	}
	return conn, logger, nil
}
