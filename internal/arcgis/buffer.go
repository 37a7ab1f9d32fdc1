package arcgis

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Kilometers per degree of latitude, and per degree of longitude at the
// equator. Longitude spacing is scaled by cos(lat) per ring.
const (
	kmPerDegLat = 110.574
	kmPerDegLon = 111.320
)

// InwardBuffer returns a copy of poly shrunk inward by km: outer rings
// move toward their interior, holes grow. Each vertex is offset along
// the bisector of its adjacent edge normals, with distances computed in
// a local kilometer frame so the shrink approximates a true ground
// distance. Rings that invert or shrink below the buffer scale are
// dropped; if no outer ring survives the whole polygon has collapsed
// and nil is returned, in which case callers fall back to the
// unbuffered polygon (small islands are smaller than the buffer).
func InwardBuffer(poly *geom.Polygon, km float64) *geom.Polygon {
	if poly == nil || km <= 0 {
		return poly
	}

	out := geom.NewPolygon(geom.XY).SetSRID(4326)

	for i := 0; i < poly.NumLinearRings(); i++ {
		ring := poly.LinearRing(i).Coords()
		shrunk, ok := shrinkRing(ring, km, i > 0)
		if !ok {
			// A grown hole must never outlive a collapsed shell.
			if i == 0 {
				return nil
			}
			continue
		}
		flat := make([]float64, 0, len(shrunk)*2)
		for _, c := range shrunk {
			flat = append(flat, c[0], c[1])
		}
		if err := out.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
	}

	if out.NumLinearRings() == 0 {
		return nil
	}
	return out
}

// shrinkRing offsets a closed ring's vertices by km kilometers. A shell
// moves toward its enclosed interior; a hole moves the other way, so
// the excluded region widens by the same margin. Returns false if the
// ring collapses.
func shrinkRing(ring []geom.Coord, km float64, hole bool) ([]geom.Coord, bool) {
	// Drop the closing vertex; it is restored at the end.
	n := len(ring)
	if n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
		ring = ring[:n-1]
		n--
	}
	if n < 3 {
		return nil, false
	}

	// Local kilometer frame around the ring's mean latitude.
	var latSum float64
	for _, c := range ring {
		latSum += c[1]
	}
	meanLat := latSum / float64(n)
	lonScale := kmPerDegLon * math.Cos(meanLat*math.Pi/180)
	if lonScale < 1e-6 {
		lonScale = 1e-6
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, c := range ring {
		xs[i] = c[0] * lonScale
		ys[i] = c[1] * kmPerDegLat
	}

	area := signedAreaXY(xs, ys)
	if math.Abs(area) < km*km {
		return nil, false
	}

	// Interior is left of travel for counter-clockwise rings, right for
	// clockwise ones. Holes offset away from their enclosed region.
	offsetSign := 1.0
	if area < 0 {
		offsetSign = -1.0
	}
	if hole {
		offsetSign = -offsetSign
	}

	outX := make([]float64, n)
	outY := make([]float64, n)
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		next := (i + 1) % n

		n1x, n1y := offsetNormal(xs[prev], ys[prev], xs[i], ys[i], offsetSign)
		n2x, n2y := offsetNormal(xs[i], ys[i], xs[next], ys[next], offsetSign)

		bx, by := n1x+n2x, n1y+n2y
		norm := math.Hypot(bx, by)
		if norm < 1e-9 {
			// Degenerate spike; fall back to the incoming edge normal.
			bx, by, norm = n1x, n1y, 1
		}
		outX[i] = xs[i] + km*bx/norm
		outY[i] = ys[i] + km*by/norm
	}

	newArea := signedAreaXY(outX, outY)
	// A sign flip means the ring turned inside out; a tiny remainder is
	// a sliver not worth querying with.
	if newArea*area <= 0 || math.Abs(newArea) < km*km {
		return nil, false
	}

	out := make([]geom.Coord, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, geom.Coord{outX[i] / lonScale, outY[i] / kmPerDegLat})
	}
	out = append(out, geom.Coord{out[0][0], out[0][1]})
	return out, true
}

// offsetNormal returns the unit normal of edge (x1,y1)->(x2,y2) on the
// side selected by sign (the left normal for sign = 1).
func offsetNormal(x1, y1, x2, y2, sign float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length < 1e-12 {
		return 0, 0
	}
	return sign * -dy / length, sign * dx / length
}

// signedAreaXY is the shoelace area of an open ring in the XY plane.
func signedAreaXY(xs, ys []float64) float64 {
	var sum float64
	n := len(xs)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += xs[i]*ys[j] - xs[j]*ys[i]
	}
	return sum / 2
}
