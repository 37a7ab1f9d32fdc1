// Package precompute is the offline batch tool: it computes coverage
// for every qualifying catalog dataset and persists the per-region
// counts for the live path to consume as cache seeds.
package precompute

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/catalog"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/region"
	"github.com/sells-group/coverage-cli/internal/resilience"
)

// Options tunes one precompute run.
type Options struct {
	// DatasetConcurrency bounds how many datasets run at once; each
	// dataset also runs RegionConcurrency region queries, so total
	// outstanding requests are the product of the two.
	DatasetConcurrency int
	RegionConcurrency  int

	// RetryAttempts and RetryDelay shape the per-region retry loop:
	// a fixed attempt count with linearly growing delay, retrying every
	// error. A flaky region must not abort a whole dataset's run.
	RetryAttempts int
	RetryDelay    time.Duration

	// QueryTimeout bounds each individual count query.
	QueryTimeout time.Duration

	// DryRun computes and reports without persisting.
	DryRun bool
	// Force reprocesses datasets that already have a coverage record.
	Force bool

	// DatasetFilter optionally narrows the run; nil means all
	// qualifying datasets.
	DatasetFilter func(catalog.Dataset) bool
}

// Outcome records one dataset's fate in a run.
type Outcome struct {
	Dataset    catalog.Dataset  `json:"dataset" yaml:"dataset"`
	Skipped    bool             `json:"skipped" yaml:"skipped"`
	SkipReason string           `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Summary    coverage.Summary `json:"summary" yaml:"summary"`
	Err        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration    `json:"duration" yaml:"duration"`
}

// Report is the result of a whole run.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`

	Processed int `json:"processed" yaml:"processed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Runner drives a precompute run over the catalog.
type Runner struct {
	Store   catalog.Store
	Regions coverage.RegionSource
	Client  *arcgis.Client
	Opts    Options
}

// Run processes every qualifying dataset. Dataset-level failures are
// recorded in the report and never abort the rest of the run; only a
// missing region geometry or a cancelled context stops it.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	opts := r.Opts
	if opts.DatasetConcurrency <= 0 {
		opts.DatasetConcurrency = 2
	}
	if opts.RegionConcurrency <= 0 {
		opts.RegionConcurrency = 4
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
	}
	log := zap.L().With(
		zap.String("component", "precompute"),
		zap.String("run_id", report.RunID),
	)

	all, err := r.Store.ListDatasets(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "precompute: list datasets")
	}

	var datasets []catalog.Dataset
	for _, d := range all {
		if !d.Qualifies() {
			continue
		}
		if opts.DatasetFilter != nil && !opts.DatasetFilter(d) {
			continue
		}
		datasets = append(datasets, d)
	}
	log.Info("precompute run starting",
		zap.Int("qualifying", len(datasets)),
		zap.Int("catalog_total", len(all)),
		zap.Bool("dry_run", opts.DryRun),
	)

	// One boundary fetch serves every dataset in the run.
	regions, err := r.Regions.Regions(ctx)
	if err != nil {
		return nil, err
	}

	// No inward buffering offline; the server-side run has no geometry
	// engine, so border slivers may count slightly high.
	exec := coverage.NewExecutor(r.Client, 0, opts.QueryTimeout,
		resilience.LinearPolicy(opts.RetryAttempts, opts.RetryDelay))

	outcomes := make([]Outcome, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.DatasetConcurrency)

	for i, d := range datasets {
		g.Go(func() error {
			outcomes[i] = r.processDataset(gctx, exec, d, regions, opts)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "precompute: run")
	}

	report.Outcomes = outcomes
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			report.Skipped++
		case o.Err != "":
			report.Failed++
		default:
			report.Processed++
		}
	}
	report.FinishedAt = time.Now().UTC()

	log.Info("precompute run finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (r *Runner) processDataset(ctx context.Context, exec *coverage.Executor, d catalog.Dataset, regions []region.Region, opts Options) Outcome {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "precompute"),
		zap.String("dataset", d.ID),
		zap.String("name", d.Name),
	)
	out := Outcome{Dataset: d}

	if !opts.Force {
		existing, err := r.Store.LoadPrecomputed(ctx, d.ID)
		if err != nil {
			out.Err = err.Error()
			out.Duration = time.Since(start)
			log.Error("precomputed lookup failed", zap.Error(err))
			return out
		}
		if existing != nil {
			out.Skipped = true
			out.SkipReason = "already processed " + existing.GeneratedAt.Format(time.RFC3339)
			out.Duration = time.Since(start)
			log.Debug("skipping already-processed dataset",
				zap.Time("generated_at", existing.GeneratedAt))
			return out
		}
	}

	batch := coverage.RunBatch(ctx, exec, d.Target(), regions, opts.RegionConcurrency, nil)
	out.Summary = batch.Summary()

	if out.Summary.FailedCount == out.Summary.TotalStates {
		out.Err = "every region query failed"
		out.Duration = time.Since(start)
		log.Error("dataset produced no usable counts")
		return out
	}

	if !opts.DryRun {
		pc := coverage.PrecomputedFromBatch(batch, time.Now().UTC())
		if err := r.Store.SavePrecomputed(ctx, d.ID, pc); err != nil {
			// Persistence failure is local to this dataset.
			out.Err = err.Error()
			log.Error("persist failed", zap.Error(err))
		}
	}

	out.Duration = time.Since(start)
	log.Info("dataset processed",
		zap.Int("states_with_data", out.Summary.StatesWithData),
		zap.Int("total_features", out.Summary.TotalFeatures),
		zap.Int("failed_regions", out.Summary.FailedCount),
		zap.Duration("elapsed", out.Duration),
	)
	return out
}
