package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/coverage-cli/internal/coverage"
)

// Rendered is a finished choropleth: the SVG document plus the batch
// summary for display alongside it.
type Rendered struct {
	SVG     string
	Summary coverage.Summary
}

// Render draws a batch as a choropleth SVG. The output is fully
// deterministic for a given batch: fixed viewports, fixed coordinate
// precision, and region order following the batch order.
func Render(batch coverage.BatchResult) *Rendered {
	maxCount := batch.MaxCount()

	var b strings.Builder
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		CanvasWidth, CanvasHeight, CanvasWidth, CanvasHeight)
	b.WriteByte('\n')

	b.WriteString(`<g stroke="#ffffff" stroke-width="0.8">` + "\n")
	for _, r := range batch {
		writeRegionPath(&b, r, maxCount)
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g font-family="Helvetica, Arial, sans-serif" font-size="11" text-anchor="middle" fill="#1a1a1a">` + "\n")
	for _, r := range batch {
		writeRegionLabel(&b, r)
	}
	b.WriteString("</g>\n")

	b.WriteString("</svg>\n")
	return &Rendered{SVG: b.String(), Summary: batch.Summary()}
}

// writeRegionPath emits one filled path per region. All of a region's
// rings share the path with even-odd fill so interior holes render as
// holes.
func writeRegionPath(b *strings.Builder, r coverage.IntersectionResult, maxCount int) {
	if r.Region.Polygon == nil {
		return
	}
	vp := ViewportFor(r.Region.FIPS)

	d := pathData(r.Region.Polygon, vp)
	if d == "" {
		return
	}

	fill := FillFor(r.Count, maxCount)
	title := fmt.Sprintf("%s: %s", r.Region.Name, FormatCount(r.Count))
	if r.Failed() {
		title = r.Region.Name + ": query failed"
	}

	fmt.Fprintf(b,
		`<path d="%s" fill="%s" fill-opacity="%s" fill-rule="evenodd"><title>%s</title></path>`,
		d, fill.Color, trimFloat(fill.Opacity, 2), xmlEscape(title))
	b.WriteByte('\n')
}

// writeRegionLabel places the count label at the region's anchor point.
// Only regions with a positive count are labeled.
func writeRegionLabel(b *strings.Builder, r coverage.IntersectionResult) {
	if r.Count <= 0 || r.Region.Polygon == nil {
		return
	}
	lon, lat, ok := LabelAnchor(r.Region.Polygon)
	if !ok {
		return
	}

	vp := ViewportFor(r.Region.FIPS)
	x, y := vp.Project(lon, lat)
	fmt.Fprintf(b, `<text x="%s" y="%s">%s</text>`,
		trimFloat(x, 1), trimFloat(y, 1), FormatCount(r.Count))
	b.WriteByte('\n')
}

func pathData(poly *geom.Polygon, vp Viewport) string {
	var d strings.Builder
	for i := 0; i < poly.NumLinearRings(); i++ {
		coords := poly.LinearRing(i).Coords()
		if len(coords) < 4 {
			continue
		}
		for j, c := range coords {
			x, y := vp.Project(c.X(), c.Y())
			if j == 0 {
				d.WriteByte('M')
			} else {
				d.WriteByte('L')
			}
			d.WriteString(trimFloat(x, 1))
			d.WriteByte(',')
			d.WriteString(trimFloat(y, 1))
		}
		d.WriteByte('Z')
	}
	return d.String()
}

// trimFloat formats with fixed precision, then drops the trailing
// zeros so the document stays compact and byte-stable.
func trimFloat(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
