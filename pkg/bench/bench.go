// Package bench runs similarity-search experiments: it builds each configured
// retrieval structure over a document collection, times top-K searches against
// it and scores the answers by category precision and by overlap with the
// exhaustive ground truth. The flat index is always consulted as the oracle,
// so approximate structures report how much of the true neighborhood they
// recovered.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/felipevidias/imgsim/pkg/core/document"
	"github.com/felipevidias/imgsim/pkg/dataset"
	"github.com/felipevidias/imgsim/pkg/index"
	"github.com/felipevidias/imgsim/pkg/index/flat"
	"github.com/felipevidias/imgsim/pkg/index/kdtree"
	"github.com/felipevidias/imgsim/pkg/index/lsh"
)

// Names of the benchmarkable structures.
const (
	IndexFlat   = "flat"
	IndexKDTree = "kdtree"
	IndexLSH    = "lsh"
)

var (
	// ErrEmptyDataset is returned when a runner is created without documents
	ErrEmptyDataset = errors.New("benchmark dataset is empty")

	// ErrNoQueries is returned when a run is started without query documents
	ErrNoQueries = errors.New("no query documents")

	// ErrUnknownIndex is returned when an index name does not resolve to a structure
	ErrUnknownIndex = errors.New("unknown index type")

	// ErrInvalidTopK is returned when the requested result width is less than 1
	ErrInvalidTopK = errors.New("top-k must be greater than 0")

	// ErrInvalidTrials is returned when the timed repetition count is less than 1
	ErrInvalidTrials = errors.New("trials must be greater than 0")
)

// Options holds configuration for a benchmark run
type Options struct {
	TopK    int          // Result width per query (default: 10)
	Trials  int          // Timed search repetitions per structure (default: 5)
	Indexes []string     // Structures to benchmark (default: flat, kdtree, lsh)
	Hashes  int          // LSH hash function count (default: 16)
	Width   float32      // LSH bucket width (default: 0.5)
	Seed    int64        // LSH projection seed; 0 samples a fresh one per build
	Logger  *slog.Logger // Defaults to slog.Default()
}

// DefaultOptions returns the default benchmark configuration
func DefaultOptions() Options {
	return Options{
		TopK:    10,
		Trials:  5,
		Indexes: []string{IndexFlat, IndexKDTree, IndexLSH},
		Hashes:  16,
		Width:   0.5,
	}
}

// Report is the complete outcome of a benchmark run
type Report struct {
	Timestamp  time.Time      `json:"timestamp"`
	Documents  int            `json:"documents"`
	Dimensions int            `json:"dimensions"`
	TopK       int            `json:"top_k"`
	Trials     int            `json:"trials"`
	Queries    []QueryResult  `json:"queries"`
	Summary    []IndexSummary `json:"summary"`
	Duration   time.Duration  `json:"duration"`
}

// QueryResult holds the per-structure outcomes for one query document
type QueryResult struct {
	Query    string        `json:"query"`
	Category int           `json:"category"`
	Indexes  []IndexResult `json:"indexes"`
}

// IndexResult is the outcome of one structure answering one query
type IndexResult struct {
	Index     string        `json:"index"`
	BuildTime time.Duration `json:"build_time"`
	Latency   LatencyStats  `json:"latency"`
	Returned  int           `json:"returned"`
	Precision float64       `json:"precision"` // Category precision over the returned matches
	Overlap   float64       `json:"overlap"`   // Fraction of the exhaustive top-K recovered
	Matches   []Match       `json:"matches"`
}

// Match is one returned neighbor
type Match struct {
	Name     string  `json:"name"`
	Distance float32 `json:"distance"`
}

// IndexSummary aggregates one structure across all queries
type IndexSummary struct {
	Index       string        `json:"index"`
	MeanBuild   time.Duration `json:"mean_build_time"`
	MeanLatency time.Duration `json:"mean_latency"`
	Precision   float64       `json:"mean_precision"`
	Overlap     float64       `json:"mean_overlap"`
	EmptyRuns   int           `json:"empty_runs"` // Queries answered with no results at all
}

// Runner executes similarity-search experiments over a fixed document
// collection. Each query rebuilds every structure from scratch with the query
// document excluded, so a structure can never answer with the query itself
// and build cost is measured on equal footing.
type Runner struct {
	docs       []*document.Document
	dimensions int
	opts       Options
	logger     *slog.Logger
}

// NewRunner creates a benchmark runner over the given documents. If opts is
// nil, DefaultOptions is used.
func NewRunner(docs []*document.Document, opts *Options) (*Runner, error) {
	options := DefaultOptions()
	if opts != nil {
		options = *opts
	}
	if len(options.Indexes) == 0 {
		options.Indexes = DefaultOptions().Indexes
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	if len(docs) == 0 {
		return nil, ErrEmptyDataset
	}
	if options.TopK < 1 {
		return nil, ErrInvalidTopK
	}
	if options.Trials < 1 {
		return nil, ErrInvalidTrials
	}
	for _, name := range options.Indexes {
		switch name {
		case IndexFlat, IndexKDTree, IndexLSH:
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownIndex, name)
		}
	}

	return &Runner{
		docs:       docs,
		dimensions: docs[0].Dimensions(),
		opts:       options,
		logger:     options.Logger,
	}, nil
}

// Run benchmarks every configured structure against every query document and
// returns the collected report.
func (r *Runner) Run(ctx context.Context, queries []*document.Document) (*Report, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	r.logger.Info("starting benchmark",
		"documents", len(r.docs),
		"queries", len(queries),
		"indexes", r.opts.Indexes,
		"top_k", r.opts.TopK,
		"trials", r.opts.Trials,
	)

	start := time.Now()
	report := &Report{
		Timestamp:  start,
		Documents:  len(r.docs),
		Dimensions: r.dimensions,
		TopK:       r.opts.TopK,
		Trials:     r.opts.Trials,
		Queries:    make([]QueryResult, 0, len(queries)),
	}

	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := r.runQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", query.Name, err)
		}
		report.Queries = append(report.Queries, result)
	}

	report.Summary = summarize(r.opts.Indexes, report.Queries)
	report.Duration = time.Since(start)

	r.logger.Info("benchmark complete", "duration", report.Duration)

	return report, nil
}

// runQuery benchmarks every configured structure on one query.
func (r *Runner) runQuery(ctx context.Context, query *document.Document) (QueryResult, error) {
	corpus := r.exclude(query.Name)

	// The exhaustive result over the same corpus is the ground truth every
	// structure is scored against.
	truth, err := r.groundTruth(corpus, query)
	if err != nil {
		return QueryResult{}, err
	}

	result := QueryResult{
		Query:    query.Name,
		Category: dataset.Category(query.Name),
		Indexes:  make([]IndexResult, 0, len(r.opts.Indexes)),
	}

	for _, name := range r.opts.Indexes {
		if err := ctx.Err(); err != nil {
			return QueryResult{}, err
		}

		ir, err := r.runIndex(name, corpus, query, result.Category, truth)
		if err != nil {
			return QueryResult{}, fmt.Errorf("%s index: %w", name, err)
		}
		result.Indexes = append(result.Indexes, ir)
	}

	return result, nil
}

// runIndex builds one structure over the corpus, times the search and scores
// the answer.
func (r *Runner) runIndex(name string, corpus []*document.Document, query *document.Document, category int, truth index.Results) (IndexResult, error) {
	idx, buildTime, err := r.build(name, corpus)
	if err != nil {
		return IndexResult{}, err
	}

	// Repeated searches against an unmodified index return identical results,
	// so only the first answer is kept while every repetition is timed.
	samples := make([]float64, r.opts.Trials)
	var results index.Results
	for trial := 0; trial < r.opts.Trials; trial++ {
		searchStart := time.Now()
		res, err := idx.Search(query.Features, r.opts.TopK)
		elapsed := time.Since(searchStart)
		if err != nil {
			return IndexResult{}, err
		}

		samples[trial] = float64(elapsed.Nanoseconds())
		if trial == 0 {
			results = res
		}
	}

	matches := make([]Match, len(results))
	for i, res := range results {
		matches[i] = Match{Name: res.Doc.Name, Distance: res.Distance}
	}

	ir := IndexResult{
		Index:     name,
		BuildTime: buildTime,
		Latency:   latencyStats(samples),
		Returned:  len(results),
		Precision: Precision(results, category),
		Overlap:   Overlap(results, truth),
		Matches:   matches,
	}

	r.logger.Debug("searched",
		"query", query.Name,
		"index", name,
		"build", ir.BuildTime,
		"latency", ir.Latency.Mean,
		"returned", ir.Returned,
		"precision", ir.Precision,
		"overlap", ir.Overlap,
	)

	return ir, nil
}

// build constructs the named structure and inserts the whole corpus, timing
// the insertions.
func (r *Runner) build(name string, corpus []*document.Document) (index.Index, time.Duration, error) {
	var (
		idx index.Index
		err error
	)

	switch name {
	case IndexFlat:
		idx = flat.NewFlatIndex()
	case IndexKDTree:
		idx, err = kdtree.NewKDTree(r.dimensions)
	case IndexLSH:
		cfg := lsh.DefaultLSHConfig()
		cfg.Hashes = r.opts.Hashes
		cfg.Width = r.opts.Width
		if r.opts.Seed != 0 {
			// A fixed seed gives every build the same projections, so runs
			// are reproducible and all queries see the same bucketing.
			cfg.Rand = rand.New(rand.NewSource(r.opts.Seed))
		}
		idx, err = lsh.NewLSHIndex(r.dimensions, &cfg)
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownIndex, name)
	}
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	for _, doc := range corpus {
		if err := idx.Insert(doc); err != nil {
			return nil, 0, err
		}
	}

	return idx, time.Since(start), nil
}

// groundTruth answers the query exhaustively over the corpus.
func (r *Runner) groundTruth(corpus []*document.Document, query *document.Document) (index.Results, error) {
	oracle := flat.NewFlatIndex()
	for _, doc := range corpus {
		if err := oracle.Insert(doc); err != nil {
			return nil, err
		}
	}
	return oracle.Search(query.Features, r.opts.TopK)
}

// exclude returns the documents whose name differs from the query's, so a
// structure never answers a query with the query image itself.
func (r *Runner) exclude(name string) []*document.Document {
	corpus := make([]*document.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if doc.Name != name {
			corpus = append(corpus, doc)
		}
	}
	return corpus
}
