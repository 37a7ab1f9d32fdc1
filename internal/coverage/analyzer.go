package coverage

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/region"
)

// ErrSuperseded means a newer analysis started while this one was in
// flight. It is not a failure: the caller drops the output silently.
var ErrSuperseded = errors.New("analysis superseded by a newer generation")

// RegionSource supplies the reference region polygons.
type RegionSource interface {
	Regions(ctx context.Context) ([]region.Region, error)
}

// SeedStore looks up precomputed coverage for a target. A nil record
// with a nil error means no precomputed result exists.
type SeedStore interface {
	LoadPrecomputed(ctx context.Context, target arcgis.QueryTarget) (*PrecomputedCoverage, error)
}

// Analyzer is the live-path entry point: cache hit, precomputed seed,
// or a full batch run, in that order.
type Analyzer struct {
	Regions     RegionSource
	Executor    *Executor
	Cache       *ResultCache
	Guard       *Guard
	Seeds       SeedStore // optional
	Concurrency int
}

// Analyze computes coverage for a target. Each call opens a new
// generation; if another call starts before this one finishes, this
// one's work completes in the background but its result is discarded
// and ErrSuperseded returned. A partial batch (some regions failed) is
// still a success; only a boundary-geometry failure or a seed-store
// failure aborts the analysis.
func (a *Analyzer) Analyze(ctx context.Context, target arcgis.QueryTarget, onProgress ProgressFunc) (BatchResult, error) {
	token := a.Guard.NewGeneration()
	log := zap.L().With(
		zap.String("component", "coverage.analyzer"),
		zap.String("target", target.String()),
	)

	if cached, ok := a.Cache.Get(target); ok {
		log.Debug("cache hit")
		return cached, nil
	}

	if a.Seeds != nil {
		pc, err := a.Seeds.LoadPrecomputed(ctx, target)
		if err != nil {
			return nil, eris.Wrap(err, "coverage: load precomputed seed")
		}
		if pc != nil {
			regions, err := a.Regions.Regions(ctx)
			if err != nil {
				return nil, err
			}
			batch := BatchFromPrecomputed(regions, pc)
			if !a.Guard.IsCurrent(token) {
				return nil, ErrSuperseded
			}
			a.Cache.Put(target, batch)
			log.Info("seeded from precomputed coverage",
				zap.Time("generated_at", pc.GeneratedAt))
			return batch, nil
		}
	}

	regions, err := a.Regions.Regions(ctx)
	if err != nil {
		return nil, err
	}

	progress := onProgress
	if progress != nil {
		progress = func(completed, total int) {
			if a.Guard.IsCurrent(token) {
				onProgress(completed, total)
			}
		}
	}

	batch := RunBatch(ctx, a.Executor, target, regions, a.Concurrency, progress)

	// A cancelled caller (client disconnect on the HTTP path) fails every
	// region; caching that batch would pin the failures for the process
	// lifetime.
	if err := ctx.Err(); err != nil {
		log.Debug("analysis cancelled, discarding result", zap.Error(err))
		return nil, err
	}

	if !a.Guard.IsCurrent(token) {
		log.Debug("batch superseded, discarding result")
		return nil, ErrSuperseded
	}

	a.Cache.Put(target, batch)
	summary := batch.Summary()
	log.Info("coverage batch complete",
		zap.Int("states_with_data", summary.StatesWithData),
		zap.Int("total_features", summary.TotalFeatures),
		zap.Int("failed", summary.FailedCount),
	)
	return batch, nil
}
