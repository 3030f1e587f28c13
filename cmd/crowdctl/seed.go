package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/seed"
	"github.com/unclebandit/crowdfund-backend/internal/server"
)

var seedMigrate bool

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Create a campaign with rewards, FAQs and updates from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fh, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fh.Close()

		file, err := seed.Load(fh)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		conn, logger, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()
		defer logger.Sync()

		if seedMigrate {
			if _, err := db.Migrate(cmd.Context(), conn, logger); err != nil {
				return err
			}
		}

		repos := server.NewRepositories(conn)
		res, err := seed.Apply(cmd.Context(), seed.Stores{
			Campaigns: repos.Campaigns,
			Rewards:   repos.Rewards,
			FAQs:      repos.FAQs,
			Community: repos.Community,
		}, file, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "campaign %d: %d rewards, %d faqs, %d updates\n",
			res.CampaignID, res.Rewards, res.FAQs, res.Updates)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedMigrate, "migrate", false, "apply migrations before seeding")
}
