package arcgis

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Geometry is the Esri JSON polygon shape used in feature-service
// requests and responses. Rings are [x, y] (lon, lat) vertex lists;
// outer rings and holes are distinguished by winding order.
type Geometry struct {
	Rings            [][][]float64     `json:"rings"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// SpatialReference names a well-known coordinate system.
type SpatialReference struct {
	WKID int `json:"wkid"`
}

// wgs84 is the only spatial reference this client speaks.
var wgs84 = &SpatialReference{WKID: 4326}

// PolygonFromRings builds a go-geom polygon from Esri JSON rings.
// Degenerate rings (fewer than 4 vertices) are dropped. Returns nil if
// nothing usable remains.
func PolygonFromRings(rings [][][]float64) *geom.Polygon {
	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	for _, ring := range rings {
		if len(ring) < 4 {
			continue
		}
		flat := make([]float64, 0, len(ring)*2)
		for _, pt := range ring {
			if len(pt) < 2 {
				continue
			}
			flat = append(flat, pt[0], pt[1])
		}
		if len(flat) < 8 {
			continue
		}
		// Rings must close; the boundary service usually closes them,
		// but be tolerant of the last vertex being dropped.
		if flat[0] != flat[len(flat)-2] || flat[1] != flat[len(flat)-1] {
			flat = append(flat, flat[0], flat[1])
		}
		lr := geom.NewLinearRingFlat(geom.XY, flat)
		if err := poly.Push(lr); err != nil {
			continue
		}
	}
	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}

// RingsFromPolygon converts a go-geom polygon back to Esri JSON rings.
func RingsFromPolygon(poly *geom.Polygon) [][][]float64 {
	if poly == nil {
		return nil
	}
	rings := make([][][]float64, 0, poly.NumLinearRings())
	for i := 0; i < poly.NumLinearRings(); i++ {
		lr := poly.LinearRing(i)
		coords := lr.Coords()
		ring := make([][]float64, 0, len(coords))
		for _, c := range coords {
			ring = append(ring, []float64{c[0], c[1]})
		}
		rings = append(rings, ring)
	}
	return rings
}

// EncodeGeometry serializes a polygon as the Esri JSON string expected
// by a feature-service query's geometry parameter.
func EncodeGeometry(poly *geom.Polygon) (string, error) {
	if poly == nil {
		return "", eris.New("arcgis: encode nil geometry")
	}
	g := Geometry{Rings: RingsFromPolygon(poly), SpatialReference: wgs84}
	data, err := json.Marshal(g)
	if err != nil {
		return "", eris.Wrap(err, "arcgis: encode geometry")
	}
	return string(data), nil
}
