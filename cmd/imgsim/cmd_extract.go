package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felipevidias/imgsim/pkg/feature"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image>",
		Short: "Print the color histogram of an image",
		Long: `Extract decodes the given image, computes its interleaved color histogram
and prints every component. Useful for inspecting what the search
structures actually compare.`,
		Args: cobra.ExactArgs(1),
		RunE: runExtract,
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	features, err := feature.ExtractFile(extractor, args[0])
	if err != nil {
		return fmt.Errorf("failed to extract features: %w", err)
	}

	fmt.Printf("Image %s (extractor: %s, dimension: %d):\n",
		filepath.Base(args[0]), extractor.Name(), len(features))
	for i, val := range features {
		fmt.Printf("  [%d]: %f\n", i, val)
	}

	return nil
}
