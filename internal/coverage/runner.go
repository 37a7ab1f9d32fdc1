package coverage

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/region"
)

// ProgressFunc is invoked after each region completes, with the number
// of completed regions and the batch total. Calls arrive from worker
// goroutines; completed is monotonic but call order between workers is
// not guaranteed.
type ProgressFunc func(completed, total int)

// RunBatch counts intersections for every region against one target
// using a fixed pool of concurrency workers sharing an atomic cursor
// over the region list. The returned batch holds exactly one result per
// input region, in input order. A region whose query fails gets the
// FailedCount sentinel; no failure stops the other workers.
func RunBatch(ctx context.Context, exec *Executor, target arcgis.QueryTarget, regions []region.Region, concurrency int, onProgress ProgressFunc) BatchResult {
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > len(regions) {
		concurrency = len(regions)
	}

	log := zap.L().With(
		zap.String("component", "coverage.runner"),
		zap.String("target", target.String()),
	)

	results := make(BatchResult, len(regions))
	var cursor atomic.Int64
	var completed atomic.Int64
	total := len(regions)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= total {
					return
				}
				reg := regions[idx]

				count, err := exec.Count(ctx, target, reg)
				if err != nil {
					log.Warn("region query failed",
						zap.String("fips", reg.FIPS),
						zap.String("abbr", reg.Abbr),
						zap.Error(err),
					)
					count = FailedCount
				}
				results[idx] = IntersectionResult{Region: reg, Count: count}

				done := int(completed.Add(1))
				if onProgress != nil {
					onProgress(done, total)
				}
			}
		}()
	}
	wg.Wait()

	return results
}
