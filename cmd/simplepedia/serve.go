package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfansharif/simplepedia/pkg/logger"
	"github.com/irfansharif/simplepedia/pkg/seed"
	"github.com/irfansharif/simplepedia/pkg/server"
	"github.com/irfansharif/simplepedia/pkg/storage"
)

var (
	serveListen  string
	serveDataDir string
	serveSeed    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference article server",
	Long: `Serve the article collection API at /api/articles/.

Articles are kept in index.json under the data directory, or only in memory
when the data directory is empty. --seed loads a JSON array (or one JSON
object per line) into a store that has no articles yet.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "address to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "directory holding index.json (default from config)")
	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "file of articles to load into an empty store")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Console(cfg.LogLevel)

	listen, dataDir := cfg.Listen, cfg.DataDir
	if cmd.Flags().Changed("listen") {
		listen = serveListen
	}
	if cmd.Flags().Changed("data-dir") {
		dataDir = serveDataDir
	}

	store, err := storage.New(dataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	if serveSeed != "" {
		articles, err := seed.ReadFile(serveSeed)
		if err != nil {
			return fmt.Errorf("reading seed: %w", err)
		}
		n, err := store.Seed(articles)
		if err != nil {
			return err
		}
		if n == 0 && len(articles) > 0 {
			log.Warn().Str("file", serveSeed).Msg("Store already has articles, not seeding")
		} else {
			log.Info().Int("articles", n).Str("file", serveSeed).Msg("Seeded store")
		}
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.NewRouter(store, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("listen", listen).Str("data_dir", dataDir).Int("articles", store.Count()).Msg("Server listening")
		errc <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
