package render

import (
	"math"

	"github.com/twpayne/go-geom"
)

// LabelAnchor computes a stable interior anchor for a region's label in
// geographic coordinates. The ring with the largest absolute signed
// area is the outer boundary (interior holes are smaller by
// construction); its signed-area centroid is then clamped into the
// ring's bounding box with a 15% inset per axis, so labels on thin or
// concave regions never land on or outside the edge.
func LabelAnchor(poly *geom.Polygon) (lon, lat float64, ok bool) {
	if poly == nil || poly.NumLinearRings() == 0 {
		return 0, 0, false
	}

	var outer *geom.LinearRing
	largest := -1.0
	for i := 0; i < poly.NumLinearRings(); i++ {
		ring := poly.LinearRing(i)
		if a := math.Abs(ringSignedArea(ring)); a > largest {
			largest = a
			outer = ring
		}
	}
	if outer == nil || largest == 0 {
		return 0, 0, false
	}

	cx, cy := ringCentroid(outer)
	minX, minY, maxX, maxY := ringBounds(outer)

	insetX := (maxX - minX) * 0.15
	insetY := (maxY - minY) * 0.15
	cx = clamp(cx, minX+insetX, maxX-insetX)
	cy = clamp(cy, minY+insetY, maxY-insetY)
	return cx, cy, true
}

// ringSignedArea is the shoelace area of a closed ring; sign encodes
// winding order.
func ringSignedArea(ring *geom.LinearRing) float64 {
	coords := ring.Coords()
	if len(coords) < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < len(coords)-1; i++ {
		area += coords[i].X()*coords[i+1].Y() - coords[i+1].X()*coords[i].Y()
	}
	return area / 2
}

// ringCentroid is the signed-area centroid of a closed ring. Falls back
// to the vertex mean for degenerate (zero-area) rings.
func ringCentroid(ring *geom.LinearRing) (float64, float64) {
	coords := ring.Coords()
	area := ringSignedArea(ring)
	if area == 0 {
		var sx, sy float64
		for _, c := range coords {
			sx += c.X()
			sy += c.Y()
		}
		n := float64(len(coords))
		return sx / n, sy / n
	}

	var cx, cy float64
	for i := 0; i < len(coords)-1; i++ {
		cross := coords[i].X()*coords[i+1].Y() - coords[i+1].X()*coords[i].Y()
		cx += (coords[i].X() + coords[i+1].X()) * cross
		cy += (coords[i].Y() + coords[i+1].Y()) * cross
	}
	return cx / (6 * area), cy / (6 * area)
}

func ringBounds(ring *geom.LinearRing) (minX, minY, maxX, maxY float64) {
	coords := ring.Coords()
	minX, minY = coords[0].X(), coords[0].Y()
	maxX, maxY = minX, minY
	for _, c := range coords[1:] {
		minX = math.Min(minX, c.X())
		minY = math.Min(minY, c.Y())
		maxX = math.Max(maxX, c.X())
		maxY = math.Max(maxY, c.Y())
	}
	return minX, minY, maxX, maxY
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		// Degenerate box smaller than the inset; use its midpoint.
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
