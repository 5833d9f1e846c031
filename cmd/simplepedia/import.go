package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/irfansharif/simplepedia/pkg/client"
	"github.com/irfansharif/simplepedia/pkg/logger"
	"github.com/irfansharif/simplepedia/pkg/seed"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Create articles from a file through the API",
	Long: `Import reads a JSON array of articles, or one JSON object per line, and
creates each one at the configured endpoint. Ids in the file are ignored.
Articles whose title already exists are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Console(cfg.LogLevel)

	articles, err := seed.ReadFile(args[0])
	if err != nil {
		return err
	}
	remote, err := newClient(cfg, client.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Int("articles", len(articles)).Str("endpoint", remote.Endpoint()).Msg("Starting import")
	summary := seed.Import(ctx, remote, articles, log)

	fmt.Fprintln(cmd.OutOrStdout(), summary)
	for _, err := range summary.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d articles failed to import", len(summary.Failed), len(articles))
	}
	return nil
}
