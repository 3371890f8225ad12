package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *cardcaptor.Config
)

var rootCmd = &cobra.Command{
	Use:           "cardctl",
	Short:         "maintenance tasks for the CardCaptor database and art storage",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := cardcaptor.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(slog.New(logger.NewHandler(cmd.ErrOrStderr(), logger.Options{
			Level:   cfg.Log.Level,
			NoColor: cfg.Log.NoColor,
		})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database",
			slog.String("type", "db"),
			slog.String("driver", cfg.DB.Driver),
			slog.Any("error", err))
		return nil, err
	}
	return db, nil
}
