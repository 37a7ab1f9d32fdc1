package coverage

import (
	"time"

	"github.com/sells-group/coverage-cli/internal/region"
)

// PrecomputedCoverage is one persisted coverage record, produced by the
// offline precompute tool and consumed read-only by the live path as a
// cache seed.
type PrecomputedCoverage struct {
	GeneratedAt    time.Time      `json:"generatedAt" yaml:"generated_at"`
	PerRegionCount map[string]int `json:"perRegionCount" yaml:"per_region_count"`
}

// BatchFromPrecomputed reconciles a precomputed record against the live
// region list. A region present in geometry but absent from the record
// defaults to zero, never to failure; abbreviations in the record with
// no matching region are ignored.
func BatchFromPrecomputed(regions []region.Region, pc *PrecomputedCoverage) BatchResult {
	results := make(BatchResult, len(regions))
	for i, reg := range regions {
		count := pc.PerRegionCount[reg.Abbr]
		if count < 0 {
			count = 0
		}
		results[i] = IntersectionResult{Region: reg, Count: count}
	}
	return results
}

// PrecomputedFromBatch builds the persistable record for a finished
// batch. Failed regions are omitted rather than stored as a sentinel,
// so consumers reconcile them to zero.
func PrecomputedFromBatch(batch BatchResult, generatedAt time.Time) *PrecomputedCoverage {
	counts := make(map[string]int, len(batch))
	for _, r := range batch {
		if r.Failed() {
			continue
		}
		counts[r.Region.Abbr] = r.Count
	}
	return &PrecomputedCoverage{GeneratedAt: generatedAt, PerRegionCount: counts}
}
