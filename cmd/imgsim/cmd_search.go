package main

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/dataset"
	"github.com/felipevidias/imgsim/pkg/feature"
	"github.com/felipevidias/imgsim/pkg/index"
	"github.com/felipevidias/imgsim/pkg/index/flat"
	"github.com/felipevidias/imgsim/pkg/index/kdtree"
	"github.com/felipevidias/imgsim/pkg/index/lsh"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <image>",
		Short: "Find the dataset images most similar to the given one",
		Long: `Search extracts the color histogram of the given image and looks up its
nearest neighbors in the dataset through the chosen structure. The query
file itself is excluded from the corpus when it is part of the dataset.`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().String("data", "", "Dataset directory (overrides the config file)")
	cmd.Flags().String("index", "flat", "Structure to search with: flat, kdtree or lsh")
	cmd.Flags().Int("top-k", 10, "Number of neighbors to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	dir := cfg.Dataset.Dir
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		dir = v
	}
	indexName, _ := cmd.Flags().GetString("index")
	topK, _ := cmd.Flags().GetInt("top-k")
	if topK < 1 {
		return fmt.Errorf("top-k must be greater than 0, got %d", topK)
	}

	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	queryPath := args[0]
	features, err := feature.ExtractFile(extractor, queryPath)
	if err != nil {
		return fmt.Errorf("failed to extract query features: %w", err)
	}

	loader, err := newLoader(dir, extractor)
	if err != nil {
		return err
	}
	docs, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	// When the query file belongs to the dataset, drop it from the corpus so
	// the answer is not the image itself at distance zero.
	queryName := filepath.Base(queryPath)
	corpus := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Name != queryName {
			corpus = append(corpus, doc)
		}
	}
	if len(corpus) == 0 {
		return fmt.Errorf("dataset %s holds no images besides the query", dir)
	}

	idx, err := newIndex(indexName, extractor.Dimension())
	if err != nil {
		return err
	}
	for _, doc := range corpus {
		if err := idx.Insert(doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", doc.Name, err)
		}
	}

	results, err := idx.Search(features, topK)
	if err != nil {
		return err
	}

	fmt.Printf("Query: %s (category %d)\n", queryName, dataset.Category(queryName))
	fmt.Printf("Index: %s over %d images\n\n", idx.Name(), len(corpus))

	if len(results) == 0 {
		if indexName == "lsh" {
			fmt.Println("No results: the query hashed to an empty bucket.")
		} else {
			fmt.Println("No results found.")
		}
		return nil
	}

	for i, res := range results {
		fmt.Printf("%3d. %-20s distance %.4f  category %d\n",
			i+1, res.Doc.Name, res.Distance, dataset.Category(res.Doc.Name))
	}

	return nil
}

// newIndex constructs the named search structure with the configured LSH
// parameters.
func newIndex(name string, dimensions int) (index.Index, error) {
	switch name {
	case "flat":
		return flat.NewFlatIndex(), nil
	case "kdtree":
		return kdtree.NewKDTree(dimensions)
	case "lsh":
		lshCfg := lsh.DefaultLSHConfig()
		lshCfg.Hashes = cfg.LSH.Hashes
		lshCfg.Width = cfg.LSH.Width
		if cfg.Bench.Seed != 0 {
			lshCfg.Rand = rand.New(rand.NewSource(cfg.Bench.Seed))
		}
		return lsh.NewLSHIndex(dimensions, &lshCfg)
	default:
		return nil, fmt.Errorf("unsupported index type: %s (supported: flat, kdtree, lsh)", name)
	}
}
