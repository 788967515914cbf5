package bench

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/felipevidias/imgsim/pkg/dataset"
	"github.com/felipevidias/imgsim/pkg/index"
)

// LatencyStats aggregates the timed search repetitions, in wall-clock time
type LatencyStats struct {
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"std_dev"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
}

// latencyStats reduces per-trial samples (nanoseconds) to summary statistics.
func latencyStats(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}

	stddev := 0.0
	if len(samples) > 1 {
		stddev = stat.StdDev(samples, nil)
	}

	return LatencyStats{
		Mean:   time.Duration(stat.Mean(samples, nil)),
		StdDev: time.Duration(stddev),
		Min:    time.Duration(floats.Min(samples)),
		Max:    time.Duration(floats.Max(samples)),
	}
}

// Precision returns the fraction of returned matches that share the query's
// dataset category. An empty result scores zero. The denominator is the
// returned count, so a hash-index answer short of K is judged on what it
// actually found.
func Precision(results index.Results, category int) float64 {
	if len(results) == 0 {
		return 0
	}

	matched := 0
	for _, r := range results {
		if dataset.Category(r.Doc.Name) == category {
			matched++
		}
	}

	return float64(matched) / float64(len(results))
}

// Overlap returns the fraction of the reference result set (by document ID)
// that also appears in results. Against the exhaustive top-K this measures how
// much of the true neighborhood a structure recovered: 1 for the tree, whose
// pruning never drops a true neighbor, and at most 1 for the hash index.
func Overlap(results, reference index.Results) float64 {
	if len(reference) == 0 {
		return 0
	}

	found := make(map[int]bool, len(results))
	for _, r := range results {
		found[r.Doc.ID] = true
	}

	matched := 0
	for _, ref := range reference {
		if found[ref.Doc.ID] {
			matched++
		}
	}

	return float64(matched) / float64(len(reference))
}

// summarize averages the per-query outcomes into one row per structure,
// keeping the configured order.
func summarize(names []string, queries []QueryResult) []IndexSummary {
	summaries := make([]IndexSummary, 0, len(names))

	for _, name := range names {
		var (
			build, latency time.Duration
			precision      float64
			overlap        float64
			empty          int
			count          int
		)

		for _, q := range queries {
			for _, ir := range q.Indexes {
				if ir.Index != name {
					continue
				}
				count++
				build += ir.BuildTime
				latency += ir.Latency.Mean
				precision += ir.Precision
				overlap += ir.Overlap
				if ir.Returned == 0 {
					empty++
				}
			}
		}

		summary := IndexSummary{Index: name, EmptyRuns: empty}
		if count > 0 {
			summary.MeanBuild = build / time.Duration(count)
			summary.MeanLatency = latency / time.Duration(count)
			summary.Precision = precision / float64(count)
			summary.Overlap = overlap / float64(count)
		}
		summaries = append(summaries, summary)
	}

	return summaries
}
