// Package main provides the imgsim CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felipevidias/imgsim/internal/config"
	"github.com/felipevidias/imgsim/pkg/dataset"
	"github.com/felipevidias/imgsim/pkg/feature"
	"github.com/felipevidias/imgsim/pkg/storage"
)

const (
	appName    = "imgsim"
	appVersion = "0.1.0"
)

// Loaded once in the root command's PersistentPreRunE and shared by every
// subcommand handler.
var (
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "imgsim - image similarity search structures and benchmarks",
		Long: `imgsim indexes images by color histogram and retrieves the most similar
ones through three interchangeable structures: an exhaustive scan, a k-d
partition tree and a locality-sensitive hash index.

The bench command compares the three on the same dataset, measuring build
time, search latency, category precision and overlap with the exhaustive
ground truth.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			name := cfg.Log.Level
			if logLevel != "" {
				name = logLevel
			}
			level, err := parseLogLevel(name)
			if err != nil {
				return err
			}

			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config file)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	})

	rootCmd.AddCommand(newBenchCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newExtractCmd())

	return rootCmd
}

// parseLogLevel resolves a level name to its slog level.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", name)
	}
}

// newExtractor builds the configured histogram extractor.
func newExtractor() (*feature.Histogram, error) {
	return feature.NewHistogram(&feature.HistogramConfig{Bins: cfg.Feature.Bins})
}

// newLoader wires a dataset loader for the given directory, attaching the
// file-backed feature cache when one is configured.
func newLoader(dir string, extractor feature.Extractor) (*dataset.Loader, error) {
	loaderCfg := dataset.Config{
		Extensions: cfg.Dataset.Extensions,
		Workers:    cfg.Dataset.Workers,
		Logger:     logger,
	}

	if cfg.Dataset.CacheDir != "" {
		store, err := storage.NewFileStore(cfg.Dataset.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open feature cache: %w", err)
		}
		loaderCfg.Cache = store
	}

	return dataset.NewLoader(dir, extractor, &loaderCfg), nil
}
