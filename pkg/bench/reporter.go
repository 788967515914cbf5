package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Reporter formats and outputs benchmark reports.
type Reporter struct {
	writer io.Writer
}

// NewReporter creates a reporter that writes to the given writer. A nil
// writer defaults to stdout.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{writer: w}
}

// PrintSummary prints one aggregate row per structure.
func (r *Reporter) PrintSummary(rep *Report) {
	w := r.writer

	fmt.Fprintln(w, "PERFORMANCE AND PRECISION ANALYSIS")
	fmt.Fprintln(w, "==================================")
	fmt.Fprintf(w, "Documents: %d (dimension %d)   queries: %d   top-k: %d   trials: %d\n",
		rep.Documents, rep.Dimensions, len(rep.Queries), rep.TopK, rep.Trials)
	fmt.Fprintf(w, "Total run time: %v\n\n", rep.Duration.Round(time.Millisecond))

	fmt.Fprintf(w, "%-8s %14s %14s %11s %9s %7s\n",
		"INDEX", "MEAN BUILD", "MEAN SEARCH", "PRECISION", "OVERLAP", "EMPTY")
	for _, s := range rep.Summary {
		fmt.Fprintf(w, "%-8s %14v %14v %10.1f%% %8.1f%% %7d\n",
			s.Index,
			s.MeanBuild.Round(time.Microsecond),
			s.MeanLatency.Round(time.Microsecond),
			s.Precision*100,
			s.Overlap*100,
			s.EmptyRuns)
	}
	fmt.Fprintln(w)
}

// PrintDetails prints the per-query, per-structure outcomes including the
// returned neighbors.
func (r *Reporter) PrintDetails(rep *Report) {
	w := r.writer

	for _, q := range rep.Queries {
		fmt.Fprintln(w, "--------------------------------------")
		fmt.Fprintf(w, "QUERY: %s (category %d)\n", q.Query, q.Category)
		fmt.Fprintln(w, "--------------------------------------")

		for _, ir := range q.Indexes {
			fmt.Fprintf(w, "\n--- %s ---\n", ir.Index)
			fmt.Fprintf(w, "Build: %v\n", ir.BuildTime.Round(time.Microsecond))
			fmt.Fprintf(w, "Search: %v (stddev %v, min %v, max %v)\n",
				ir.Latency.Mean.Round(time.Microsecond),
				ir.Latency.StdDev.Round(time.Microsecond),
				ir.Latency.Min.Round(time.Microsecond),
				ir.Latency.Max.Round(time.Microsecond))

			if ir.Returned == 0 {
				fmt.Fprintln(w, "No results found.")
				continue
			}

			fmt.Fprintf(w, "Precision@%d: %.1f%%   overlap: %.1f%%\n",
				ir.Returned, ir.Precision*100, ir.Overlap*100)
			for i, m := range ir.Matches {
				fmt.Fprintf(w, "%3d. %-20s (distance %.4f)\n", i+1, m.Name, m.Distance)
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintJSON writes the report as indented JSON.
func (r *Reporter) PrintJSON(rep *Report) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

// Save writes the full text rendering (summary plus details) to a file.
func (r *Reporter) Save(rep *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fr := NewReporter(file)
	fr.PrintSummary(rep)
	fr.PrintDetails(rep)

	return nil
}

// SaveJSON writes the report to a JSON file.
func (r *Reporter) SaveJSON(rep *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}
