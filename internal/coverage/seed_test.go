package coverage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/internal/region"
)

func TestBatchFromPrecomputed_MissingRegionDefaultsToZero(t *testing.T) {
	regions := []region.Region{
		squareRegion("06", "CA", -120),
		squareRegion("48", "TX", -100),
	}
	pc := &PrecomputedCoverage{
		GeneratedAt:    time.Now(),
		PerRegionCount: map[string]int{"CA": 7},
	}

	batch := BatchFromPrecomputed(regions, pc)
	require.Len(t, batch, 2)
	assert.Equal(t, 7, batch[0].Count)
	// Absent from the record means zero, never a failure.
	assert.Equal(t, 0, batch[1].Count)
	assert.Equal(t, 0, batch.Summary().FailedCount)
}

func TestBatchFromPrecomputed_IgnoresUnknownAbbreviations(t *testing.T) {
	regions := []region.Region{squareRegion("06", "CA", -120)}
	pc := &PrecomputedCoverage{PerRegionCount: map[string]int{"CA": 3, "ZZ": 99}}

	batch := BatchFromPrecomputed(regions, pc)
	require.Len(t, batch, 1)
	assert.Equal(t, 3, batch[0].Count)
}

func TestPrecomputedFromBatch_OmitsFailures(t *testing.T) {
	batch := BatchResult{
		namedResult("CA", 7),
		namedResult("TX", 0),
		namedResult("WY", FailedCount),
	}
	pc := PrecomputedFromBatch(batch, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, map[string]int{"CA": 7, "TX": 0}, pc.PerRegionCount)
	assert.Equal(t, 2026, pc.GeneratedAt.Year())
}

func TestSeededAndLiveBatchesSummarizeIdentically(t *testing.T) {
	regions := []region.Region{
		squareRegion("06", "CA", -120),
		squareRegion("48", "TX", -100),
		squareRegion("56", "WY", -110),
	}

	live := BatchResult{
		{Region: regions[0], Count: 7},
		{Region: regions[1], Count: 0},
		{Region: regions[2], Count: 12},
	}
	seeded := BatchFromPrecomputed(regions, PrecomputedFromBatch(live, time.Now()))

	assert.Equal(t, live.Summary(), seeded.Summary())
	assert.Equal(t, live.MaxCount(), seeded.MaxCount())
}
