// Package batch runs the trip pipeline over many trip files. Each trip is
// cleaned, summarized and featurized independently; a failure in one file is
// reported and never aborts the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cats.report/internal/config"
	"github.com/banshee-data/cats.report/internal/fsutil"
	"github.com/banshee-data/cats.report/internal/monitoring"
	"github.com/banshee-data/cats.report/internal/trip"
)

// TripResult is the per-trip outcome of a batch run.
type TripResult struct {
	Path     string
	Summary  *trip.SummaryTable
	Duration time.Duration
	Report   *trip.CleanReport
}

// TripError wraps a per-file pipeline failure with its file identity.
type TripError struct {
	Path string
	Err  error
}

func (e TripError) Error() string {
	return fmt.Sprintf("trip %s: %v", e.Path, e.Err)
}

func (e TripError) Unwrap() error { return e.Err }

// Result aggregates a batch run: the successful trips in input order, the
// failures in input order, and the keyed feature matrix (one row per
// successful trip, key = trip file path).
type Result struct {
	RunID    string
	Trips    []TripResult
	Failures []TripError
	Features *trip.FeatureMatrix
}

// Runner processes batches of trip files with a shared configuration.
// Trips are independent, so the runner may fan them out across a bounded
// worker pool; result order always follows input order.
type Runner struct {
	fsys fsutil.FileSystem
	cfg  *config.PipelineConfig
}

// NewRunner creates a batch Runner reading trips through fsys.
func NewRunner(fsys fsutil.FileSystem, cfg *config.PipelineConfig) *Runner {
	if cfg == nil {
		cfg = config.EmptyPipelineConfig()
	}
	return &Runner{fsys: fsys, cfg: cfg}
}

// Run processes the given trip files and returns the batch result. Per-file
// errors are collected, not returned; Run itself fails only on cancellation.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	outcomes := make([]*tripOutcome, len(paths))

	workers := r.cfg.GetWorkers()
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	if workers <= 1 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = r.processTrip(path)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					outcomes[i] = r.processTrip(paths[i])
				}
			}()
		}

	dispatch:
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				break dispatch
			}
		}
		close(jobs)
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result := &Result{RunID: uuid.NewString()}
	var keys []string
	var summaries []*trip.SummaryTable
	for _, o := range outcomes {
		if o.err != nil {
			terr := TripError{Path: o.path, Err: o.err}
			monitoring.Logf("WARNING: %v", terr)
			result.Failures = append(result.Failures, terr)
			continue
		}
		result.Trips = append(result.Trips, o.result)
		keys = append(keys, o.path)
		summaries = append(summaries, o.result.Summary)
	}
	result.Features = trip.FeaturizeTripsKeyed(keys, summaries)

	return result, nil
}

type tripOutcome struct {
	path   string
	result TripResult
	err    error
}

// processTrip runs the full pipeline for one file: clean, summarize,
// collect. All failures are funneled into the outcome.
func (r *Runner) processTrip(path string) *tripOutcome {
	o := &tripOutcome{path: path}

	cleaner, err := trip.NewCleaner(r.fsys, path, r.cfg.CleanerConfig())
	if err != nil {
		o.err = err
		return o
	}
	if err := cleaner.Clean(); err != nil {
		o.err = err
		return o
	}

	summarizer := trip.NewSummarizer(cleaner)
	if err := summarizer.Calculate(r.cfg.GetResampleInterval(), r.cfg.GetInterpolateMissing()); err != nil {
		o.err = err
		return o
	}

	summary, err := summarizer.SummaryTable()
	if err != nil {
		o.err = err
		return o
	}
	duration, err := summarizer.Duration()
	if err != nil {
		o.err = err
		return o
	}
	report, err := cleaner.Report()
	if err != nil {
		o.err = err
		return o
	}

	o.result = TripResult{
		Path:     path,
		Summary:  summary,
		Duration: duration,
		Report:   report,
	}
	return o
}
