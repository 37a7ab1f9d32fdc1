package region

import (
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefile reads the 51 reference regions from a local TIGER/Line
// states shapefile. The offline precompute tool uses this to avoid a
// network boundary fetch on every run; the allowlist filter and the
// zero-survivor failure mode match the network provider exactly.
func LoadShapefile(path string) ([]Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, &BoundaryFetchError{Err: eris.Wrapf(err, "open shapefile %s", path)}
	}
	defer func() { _ = reader.Close() }()

	fipsIdx := fieldIndex(reader, "STATEFP")
	nameIdx := fieldIndex(reader, "NAME")
	abbrIdx := fieldIndex(reader, "STUSPS")
	if fipsIdx < 0 || nameIdx < 0 || abbrIdx < 0 {
		return nil, &BoundaryFetchError{
			Err: eris.New("shapefile missing required fields (STATEFP, NAME, STUSPS)"),
		}
	}

	log := zap.L().With(zap.String("component", "region.shapefile"))

	var regions []Region
	for reader.Next() {
		_, shape := reader.Shape()
		fips := strings.TrimSpace(reader.Attribute(fipsIdx))
		if !IsCoverageState(fips) {
			continue
		}

		poly := shapeToPolygon(shape)
		if poly == nil {
			log.Warn("state shape has no usable rings, dropping", zap.String("fips", fips))
			continue
		}

		name := strings.TrimSpace(reader.Attribute(nameIdx))
		abbr := strings.TrimSpace(reader.Attribute(abbrIdx))
		if name == "" || abbr == "" {
			name, abbr, _ = Lookup(fips)
		}
		regions = append(regions, Region{FIPS: fips, Name: name, Abbr: abbr, Polygon: poly})
	}

	if len(regions) == 0 {
		return nil, &BoundaryFetchError{Err: eris.Errorf("no coverage states found in %s", path)}
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].FIPS < regions[j].FIPS })
	log.Info("state boundaries loaded from shapefile",
		zap.String("path", path),
		zap.Int("regions", len(regions)),
	)
	return regions, nil
}

// shapeToPolygon converts a shapefile polygon's parts into rings of a
// single go-geom polygon.
func shapeToPolygon(s shp.Shape) *geom.Polygon {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("region: skipping malformed shapefile ring",
				zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}

// fieldIndex returns the index of a named field in the shapefile, or -1
// if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
