package cmd

import (
	"fmt"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/repositories"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/spf13/cobra"
)

var syncArtCMD = &cobra.Command{
	Use:   "sync-art",
	Short: "register art files that have no card template yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.InitializeSchema(ctx); err != nil {
			return err
		}

		art, err := cardcaptor.NewArtStore(ctx, *cfg)
		if err != nil {
			return err
		}
		catalog := cards.NewCatalog(repositories.NewCardRepository(db.BunDB()))

		added, err := services.SyncCatalog(ctx, art, catalog)
		fmt.Fprintf(cmd.OutOrStdout(), "registered %d new card(s) from %s\n", added, art.Location())
		return err
	},
}

var statsCMD = &cobra.Command{
	Use:   "stats",
	Short: "print catalog and ownership counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := repositories.NewCardRepository(db.BunDB()).Counts(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "templates:  %d\n", counts.Templates)
		fmt.Fprintf(out, "spawned:    %d\n", counts.Spawned)
		fmt.Fprintf(out, "claimed:    %d\n", counts.Claimed)
		fmt.Fprintf(out, "collectors: %d\n", counts.Owners)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncArtCMD, statsCMD)
}
