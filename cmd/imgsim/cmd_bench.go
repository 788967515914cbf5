package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felipevidias/imgsim/pkg/bench"
	"github.com/felipevidias/imgsim/pkg/core/document"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the search structures over an image dataset",
		Long: `Bench loads every image in the dataset directory, extracts its color
histogram and benchmarks the configured structures: per query image, each
structure is rebuilt with the query excluded, searched repeatedly under the
clock and scored against the exhaustive ground truth.`,
		RunE: runBench,
	}

	cmd.Flags().String("data", "", "Dataset directory (overrides the config file)")
	cmd.Flags().Int("top-k", 0, "Neighbors per query (overrides the config file)")
	cmd.Flags().Int("trials", 0, "Timed repetitions per search (overrides the config file)")
	cmd.Flags().StringSlice("query", nil, "Query image file name, repeatable (overrides the config file)")
	cmd.Flags().StringSlice("index", nil, "Structure to benchmark, repeatable (overrides the config file)")
	cmd.Flags().String("output", "", "Report file path (overrides the config file)")
	cmd.Flags().String("format", "", "Report format, text or json (overrides the config file)")
	cmd.Flags().Bool("detailed", false, "Print per-query details")

	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	dir := cfg.Dataset.Dir
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		dir = v
	}
	topK := cfg.Bench.TopK
	if v, _ := cmd.Flags().GetInt("top-k"); v != 0 {
		topK = v
	}
	trials := cfg.Bench.Trials
	if v, _ := cmd.Flags().GetInt("trials"); v != 0 {
		trials = v
	}
	queries := cfg.Bench.Queries
	if v, _ := cmd.Flags().GetStringSlice("query"); len(v) != 0 {
		queries = v
	}
	indexes := cfg.Bench.Indexes
	if v, _ := cmd.Flags().GetStringSlice("index"); len(v) != 0 {
		indexes = v
	}
	output := cfg.Bench.Output
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		output = v
	}
	format := cfg.Bench.Format
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		format = v
	}
	detailed, _ := cmd.Flags().GetBool("detailed")

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown report format: %s (supported: text, json)", format)
	}

	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	loader, err := newLoader(dir, extractor)
	if err != nil {
		return err
	}
	docs, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	queryDocs, err := resolveQueries(docs, queries)
	if err != nil {
		return err
	}

	opts := bench.Options{
		TopK:    topK,
		Trials:  trials,
		Indexes: indexes,
		Hashes:  cfg.LSH.Hashes,
		Width:   cfg.LSH.Width,
		Seed:    cfg.Bench.Seed,
		Logger:  logger,
	}
	runner, err := bench.NewRunner(docs, &opts)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context(), queryDocs)
	if err != nil {
		return err
	}

	reporter := bench.NewReporter(os.Stdout)
	if format == "json" {
		if err := reporter.PrintJSON(report); err != nil {
			return err
		}
	} else {
		reporter.PrintSummary(report)
		if detailed {
			reporter.PrintDetails(report)
		}
	}

	if output != "" {
		if format == "json" {
			err = reporter.SaveJSON(report, output)
		} else {
			err = reporter.Save(report, output)
		}
		if err != nil {
			return err
		}
		logger.Info("report saved", "path", output)
	}

	return nil
}

// resolveQueries maps the configured query file names onto loaded documents.
// A name missing from the dataset is logged and skipped, like the original
// experiment driver; only an empty resolution is an error.
func resolveQueries(docs []*document.Document, names []string) ([]*document.Document, error) {
	byName := make(map[string]*document.Document, len(docs))
	for _, doc := range docs {
		byName[doc.Name] = doc
	}

	queryDocs := make([]*document.Document, 0, len(names))
	for _, name := range names {
		doc, ok := byName[name]
		if !ok {
			logger.Warn("query image not found in dataset, skipping", "file", name)
			continue
		}
		queryDocs = append(queryDocs, doc)
	}

	if len(queryDocs) == 0 {
		return nil, fmt.Errorf("none of the %d configured query images are present in the dataset", len(names))
	}

	return queryDocs, nil
}
