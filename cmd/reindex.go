package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentciril/ciril/internal/app"
	"github.com/agentciril/ciril/internal/config"
	"github.com/agentciril/ciril/internal/log"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the knowledge base from the stored profile",
	Long: `Re-embeds the profile and projects into the vector knowledge base.
Normally this happens automatically after every profile update; run it
manually after changing the embedder model or restoring a database.`,
	RunE: func(*cobra.Command, []string) error {
		return runReindex()
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	count, err := a.Indexer.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("rebuilding knowledge base: %w", err)
	}

	fmt.Printf("Indexed %d documents.\n", count)
	return nil
}
