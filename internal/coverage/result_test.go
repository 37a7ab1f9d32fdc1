package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/coverage-cli/internal/region"
)

func namedResult(abbr string, count int) IntersectionResult {
	return IntersectionResult{Region: region.Region{Abbr: abbr}, Count: count}
}

func TestSummary_SentinelNeverCoercedToZero(t *testing.T) {
	batch := BatchResult{
		namedResult("AA", 10),
		namedResult("BB", 0),
		namedResult("CC", FailedCount),
	}

	s := batch.Summary()
	assert.Equal(t, 1, s.StatesWithData)
	assert.Equal(t, 10, s.TotalFeatures)
	assert.Equal(t, 1, s.FailedCount)
	assert.Equal(t, 3, s.TotalStates)
}

func TestSummary_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, BatchResult{}.Summary())
}

func TestSummary_AllFailed(t *testing.T) {
	batch := BatchResult{
		namedResult("AA", FailedCount),
		namedResult("BB", FailedCount),
	}
	s := batch.Summary()
	assert.Equal(t, 0, s.StatesWithData)
	assert.Equal(t, 0, s.TotalFeatures)
	assert.Equal(t, 2, s.FailedCount)
	assert.Equal(t, 2, s.TotalStates)
}

func TestMaxCount_IgnoresSentinel(t *testing.T) {
	batch := BatchResult{
		namedResult("AA", FailedCount),
		namedResult("BB", 7),
		namedResult("CC", 3),
	}
	assert.Equal(t, 7, batch.MaxCount())

	assert.Equal(t, 0, BatchResult{namedResult("AA", FailedCount)}.MaxCount())
}
