package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/irfansharif/simplepedia/pkg/client"
	"github.com/irfansharif/simplepedia/pkg/config"
	"github.com/irfansharif/simplepedia/pkg/logger"
	"github.com/irfansharif/simplepedia/pkg/tui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "simplepedia",
	Short: "Browse and edit a Simplepedia article collection",
	Long: `Simplepedia is a terminal client for a small encyclopedia kept behind an
HTTP API. With no subcommand it opens the terminal UI.

Examples:
  # Run a local server with some articles, then browse them
  simplepedia serve --seed articles.json &
  simplepedia

  # Create articles from a file through the API
  simplepedia import articles.ndjson`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runTUI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.simplepedia/simplepedia.toml)")
	rootCmd.AddCommand(tuiCmd)
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	return config.LoadFrom(configPath)
}

func newClient(cfg config.Config, opts ...client.Option) (*client.Client, error) {
	opts = append([]client.Option{client.WithTimeout(cfg.Timeout.Duration)}, opts...)
	return client.New(cfg.Endpoint, opts...)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	log, closer, err := logger.File(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	remote, err := newClient(cfg, client.WithLogger(log))
	if err != nil {
		return err
	}
	log.Info().Str("endpoint", remote.Endpoint()).Msg("Starting terminal UI")

	model := tui.New(remote, tui.Options{
		TimeFormat: cfg.TimeFormat,
		Editor:     cfg.Editor,
		Log:        log,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
