package coverage

import (
	"github.com/sells-group/coverage-cli/internal/region"
)

// FailedCount marks a region whose count query failed (timeout, service
// error, malformed response). It is tracked separately in aggregates and
// must never be coerced to zero.
const FailedCount = -1

// IntersectionResult is the outcome of one region's count query.
type IntersectionResult struct {
	Region region.Region
	// Count is the number of intersecting features, or FailedCount.
	Count int
}

// Failed reports whether this region's query failed.
func (r IntersectionResult) Failed() bool {
	return r.Count == FailedCount
}

// BatchResult holds exactly one IntersectionResult per analyzed region.
type BatchResult []IntersectionResult

// Summary aggregates a batch for display.
type Summary struct {
	// StatesWithData is the number of regions with a positive count.
	StatesWithData int
	// TotalFeatures sums all non-negative counts.
	TotalFeatures int
	// FailedCount is the number of regions carrying the failure sentinel.
	FailedCount int
	// TotalStates is the number of regions analyzed.
	TotalStates int
}

// Summary computes aggregate statistics. Failed regions contribute only
// to FailedCount, never to the feature totals.
func (b BatchResult) Summary() Summary {
	s := Summary{TotalStates: len(b)}
	for _, r := range b {
		switch {
		case r.Failed():
			s.FailedCount++
		case r.Count > 0:
			s.StatesWithData++
			s.TotalFeatures += r.Count
		}
	}
	return s
}

// MaxCount returns the largest successful count in the batch, or 0 if
// every region is empty or failed.
func (b BatchResult) MaxCount() int {
	max := 0
	for _, r := range b {
		if r.Count > max {
			max = r.Count
		}
	}
	return max
}
