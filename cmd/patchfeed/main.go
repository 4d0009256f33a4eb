// Command patchfeed scrapes Wild Rift patch notes into a local SQLite
// database and serves them over a small JSON API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wrgg/patchfeed/config"
	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/pipeline"
	"github.com/wrgg/patchfeed/store"
)

var (
	flagConfig  string
	flagDB      string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "patchfeed",
	Short: "patchfeed keeps a local database of champion balance changes from published patch notes.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file.")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path, overriding the config file.")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging.")
}

// loadConfig builds the effective config for a command, applying the --db
// override last.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDB != "" {
		cfg.Database = flagDB
	}
	return cfg, nil
}

// openStore opens the configured database, creating it on first use.
func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database, err)
	}
	return st, nil
}

// newUpdater wires the pipeline from config.
func newUpdater(cfg config.Config, st *store.Store) *pipeline.Updater {
	client := fetch.NewClient(cfg.FetchTimeout.Std(), cfg.UserAgent)
	return pipeline.NewUpdater(st, client, pipeline.Config{
		ListingURL:  cfg.ListingURL,
		RosterURL:   cfg.RosterURL,
		FeedURL:     cfg.FeedURL,
		BaseURL:     cfg.BaseURL,
		Selectors:   cfg.Selectors,
		Concurrency: cfg.Concurrency,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
