// Command forecast is the batch entry point: the same pipeline and model as
// the server, run once from the command line.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tempcast/internal/config"
	"tempcast/internal/logging"
)

const appName = "tempcast-forecast"

// set with -ldflags "-X main.version=..."
var version = "dev"

type cli struct {
	cfg config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "forecast",
		Short:        "Forecast next-day average temperature from a reading history",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			c.cfg = cfg
			slog.SetDefault(logging.NewWithWriter(cmd.ErrOrStderr(), cfg, version, appName))
			return nil
		},
	}

	root.AddCommand(
		c.newPredictCmd(),
		c.newEvaluateCmd(),
		c.newMigrateCmd(),
		c.newImportCmd(),
		c.newReplayCmd(),
	)

	root.SetErrPrefix("forecast:")
	return root
}
