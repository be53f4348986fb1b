package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"photocull/internal/config"
	"photocull/internal/logging"
	"photocull/internal/storage"
)

var (
	configPath string
	dbPath     string
	threshold  int
	workers    int
	strategy   string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "photocull",
	Short: "Catalog photos and cull duplicates safely",
	Long: `photocull scans photo libraries, detects exact and near duplicates,
and removes the redundant copies without ever losing an original.

It hashes every file (SHA-256 for exact matches, perceptual pHash for
near matches), groups lookalikes, suggests which frame to keep, and moves
the rest aside with a reversible history log.

Example usage:
  photocull scan ./photos               # Catalog a folder and find duplicates
  photocull list                        # Show duplicate groups
  photocull cull --dry-run              # Preview what would be moved
  photocull cull                        # Move duplicates aside
  photocull history restore --all       # Put everything back`,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/photocull/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to catalog database")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "Hamming distance threshold (0-64, lower = stricter)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of parallel workers for scanning")
	rootCmd.PersistentFlags().StringVar(&strategy, "strategy", "", "Keep strategy: oldest, newest, largest, smallest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// setup loads the config file and folds any explicit flags over it, so
// flags always win but the file provides the defaults.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = threshold
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("strategy") {
		cfg.Strategy = strategy
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func resolvedDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	dataDir, err := config.DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "catalog.db"), nil
}

func resolvedThumbnailDir() (string, error) {
	if cfg.ThumbnailDir != "" {
		return cfg.ThumbnailDir, nil
	}
	dataDir, err := config.DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "thumbnails"), nil
}

func openStorage() (*storage.Storage, error) {
	path, err := resolvedDBPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
