package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/region"
)

func testBatch() coverage.BatchResult {
	conus := polygon([]geom.Coord{{-100, 30}, {-99, 30}, {-99, 31}, {-100, 31}, {-100, 30}})
	alaska := polygon([]geom.Coord{{-160, 55}, {-150, 55}, {-150, 65}, {-160, 65}, {-160, 55}})

	return coverage.BatchResult{
		{Region: region.Region{FIPS: "48", Name: "Texas", Abbr: "TX", Polygon: conus}, Count: 1500},
		{Region: region.Region{FIPS: "02", Name: "Alaska", Abbr: "AK", Polygon: alaska}, Count: 3},
		{Region: region.Region{FIPS: "56", Name: "Wyoming", Abbr: "WY", Polygon: conus}, Count: 0},
		{Region: region.Region{FIPS: "06", Name: "California", Abbr: "CA", Polygon: conus}, Count: coverage.FailedCount},
	}
}

func TestRender_Deterministic(t *testing.T) {
	batch := testBatch()
	first := Render(batch)
	second := Render(batch)
	assert.Equal(t, first.SVG, second.SVG)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestRender_PathsAndLabels(t *testing.T) {
	out := Render(testBatch())

	assert.Equal(t, 2, strings.Count(out.SVG, "<text"), "labels only for positive counts")
	assert.Contains(t, out.SVG, ">1.5k</text>")
	assert.Contains(t, out.SVG, ">3</text>")
	assert.Equal(t, 4, strings.Count(out.SVG, "<path"))
	assert.Contains(t, out.SVG, `fill-rule="evenodd"`)
}

func TestRender_FailedRegionNeutral(t *testing.T) {
	out := Render(testBatch())

	assert.Contains(t, out.SVG, "California: query failed")
	assert.Contains(t, out.SVG, neutralFill.Color)

	s := out.Summary
	assert.Equal(t, 2, s.StatesWithData)
	assert.Equal(t, 1503, s.TotalFeatures)
	assert.Equal(t, 1, s.FailedCount)
	assert.Equal(t, 4, s.TotalStates)
}

func TestRender_HoleSharesPath(t *testing.T) {
	withHole := polygon(
		[]geom.Coord{{-100, 30}, {-95, 30}, {-95, 35}, {-100, 35}, {-100, 30}},
		[]geom.Coord{{-98, 32}, {-97, 32}, {-97, 33}, {-98, 33}, {-98, 32}},
	)
	batch := coverage.BatchResult{
		{Region: region.Region{FIPS: "48", Name: "Texas", Abbr: "TX", Polygon: withHole}, Count: 10},
	}

	out := Render(batch)
	require.Equal(t, 1, strings.Count(out.SVG, "<path"))
	// Two subpaths inside one d attribute.
	d := out.SVG[strings.Index(out.SVG, `d="`)+3:]
	d = d[:strings.Index(d, `"`)]
	assert.Equal(t, 2, strings.Count(d, "M"))
	assert.Equal(t, 2, strings.Count(d, "Z"))
}

func TestRender_EscapesNames(t *testing.T) {
	poly := polygon([]geom.Coord{{-100, 30}, {-99, 30}, {-99, 31}, {-100, 31}, {-100, 30}})
	batch := coverage.BatchResult{
		{Region: region.Region{FIPS: "48", Name: `A & B <C>`, Abbr: "TX", Polygon: poly}, Count: 1},
	}

	out := Render(batch)
	assert.Contains(t, out.SVG, "A &amp; B &lt;C&gt;")
}

func TestStatusLine(t *testing.T) {
	s := coverage.Summary{StatesWithData: 34, TotalFeatures: 1234567, FailedCount: 0, TotalStates: 51}
	assert.Equal(t, "coverage in 34 of 51 states, 1,234,567 features", StatusLine(s))

	s.FailedCount = 2
	assert.Equal(t, "coverage in 34 of 51 states, 1,234,567 features (2 regions failed)", StatusLine(s))

	assert.Equal(t, "no regions analyzed", StatusLine(coverage.Summary{}))
}
