// ABOUTME: Root cobra command, global flags, and shared app construction
// ABOUTME: Loads the TOML config once and surfaces its per-field fallback warnings

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivulet/rivulet/internal/app"
	"github.com/rivulet/rivulet/internal/config"
	"github.com/rivulet/rivulet/internal/storage"
)

var (
	dbPath     string
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rivulet",
	Short: "Terminal-first, offline-first feed reader",
	Long: `Rivulet is a terminal feed reader.

Subscribe to RSS, Atom, and JSON feeds, pull new entries on demand or on a
schedule, and read everything offline. Sparse entries can be augmented with
the full article scraped from the web.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			dbPath = storage.DefaultDBPath()
		}
		if configPath == "" {
			configPath = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			// A broken config file recovers to defaults with a warning
			fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
			cfg = config.Default()
		}
		for _, warning := range cfg.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// openApp builds the application context. Commands that ingest items pass
// withScraper so new items get queued for background scraping; the queue is
// drained during Close.
func openApp(withScraper bool) (*app.App, error) {
	return app.Open(dbPath, cfg, withScraper)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path (default: $XDG_DATA_HOME/rivulet/rivulet.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/rivulet/config.toml)")
}
