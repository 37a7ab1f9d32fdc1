package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillFor_NeutralForZeroAndFailed(t *testing.T) {
	assert.Equal(t, neutralFill, FillFor(0, 100))
	assert.Equal(t, neutralFill, FillFor(-1, 100))
	// A batch where everything failed has maxCount 0.
	assert.Equal(t, neutralFill, FillFor(-1, 0))
}

func TestFillFor_MaxCountHitsRampTop(t *testing.T) {
	f := FillFor(500, 500)
	assert.Equal(t, "#08519c", f.Color)
	assert.InDelta(t, 0.95, f.Opacity, 1e-9)
}

func TestFillFor_LogScaleMonotonic(t *testing.T) {
	prev := FillFor(1, 10000).Opacity
	for _, count := range []int{10, 100, 1000, 10000} {
		cur := FillFor(count, 10000).Opacity
		assert.Greater(t, cur, prev, "count %d", count)
		prev = cur
	}
}

func TestFillFor_SmallCountsStayDistinguishable(t *testing.T) {
	// The log scale keeps one huge count from flattening the rest:
	// 10 of 100000 still sits well above the ramp bottom.
	f := FillFor(10, 100000)
	assert.Greater(t, f.Opacity, 0.5)
	assert.NotEqual(t, neutralFill.Color, f.Color)
}

func TestFormatCount(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		7:       "7",
		999:     "999",
		1000:    "1000",
		1001:    "1.0k",
		1500:    "1.5k",
		12345:   "12.3k",
		250000:  "250k",
		1200000: "1200k",
	}
	for count, want := range cases {
		assert.Equal(t, want, FormatCount(count), "count %d", count)
	}
}
