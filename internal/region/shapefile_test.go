package region

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStatesShapefile writes a minimal TIGER-shaped states shapefile.
func writeStatesShapefile(t *testing.T, path string, records []struct {
	fips, name, abbr string
	lon, lat         float64
}) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("NAME", 50),
		shp.StringField("STUSPS", 2),
	}
	require.NoError(t, w.SetFields(fields))

	for _, rec := range records {
		// Clockwise closed square, the TIGER outer-ring convention.
		pts := []shp.Point{
			{X: rec.lon, Y: rec.lat},
			{X: rec.lon, Y: rec.lat + 1},
			{X: rec.lon + 1, Y: rec.lat + 1},
			{X: rec.lon + 1, Y: rec.lat},
			{X: rec.lon, Y: rec.lat},
		}
		poly := &shp.Polygon{
			Box:       shp.Box{MinX: rec.lon, MinY: rec.lat, MaxX: rec.lon + 1, MaxY: rec.lat + 1},
			NumParts:  1,
			NumPoints: int32(len(pts)),
			Parts:     []int32{0},
			Points:    pts,
		}
		row := w.Write(poly)
		require.NoError(t, w.WriteAttribute(int(row), 0, rec.fips))
		// DBF character fields are space-padded to the field width; go-shp's
		// writer zero-fills records, so pad explicitly to match the spec.
		require.NoError(t, w.WriteAttribute(int(row), 1, fmt.Sprintf("%-50s", rec.name)))
		require.NoError(t, w.WriteAttribute(int(row), 2, rec.abbr))
	}
	w.Close()
}

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")
	writeStatesShapefile(t, path, []struct {
		fips, name, abbr string
		lon, lat         float64
	}{
		{"48", "Texas", "TX", -100, 31},
		{"06", "California", "CA", -120, 37},
		{"72", "Puerto Rico", "PR", -66, 18}, // not in allowlist
	})

	regions, err := LoadShapefile(path)
	require.NoError(t, err)

	require.Len(t, regions, 2)
	assert.Equal(t, "06", regions[0].FIPS)
	assert.Equal(t, "California", regions[0].Name)
	assert.Equal(t, "CA", regions[0].Abbr)
	require.NotNil(t, regions[0].Polygon)
	assert.Equal(t, 1, regions[0].Polygon.NumLinearRings())
	assert.Equal(t, "48", regions[1].FIPS)
}

func TestLoadShapefile_NoCoverageStates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "territories.shp")
	writeStatesShapefile(t, path, []struct {
		fips, name, abbr string
		lon, lat         float64
	}{
		{"72", "Puerto Rico", "PR", -66, 18},
	})

	_, err := LoadShapefile(path)
	require.Error(t, err)
	var bfe *BoundaryFetchError
	assert.True(t, errors.As(err, &bfe))
}

func TestLoadShapefile_MissingFile(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	require.Error(t, err)
	var bfe *BoundaryFetchError
	assert.True(t, errors.As(err, &bfe))
}
