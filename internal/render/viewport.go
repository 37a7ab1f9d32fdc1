package render

// Canvas dimensions for the composed map. The contiguous states fill
// the canvas; Alaska and Hawaii render into fixed inset boxes along the
// bottom-left edge, the familiar US choropleth arrangement.
const (
	CanvasWidth  = 960.0
	CanvasHeight = 600.0
)

// Viewport maps a geographic bounding box onto a screen rectangle with
// a plain equirectangular projection.
type Viewport struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64

	OriginX, OriginY float64
	Width, Height    float64
}

// Project converts a (longitude, latitude) pair to screen coordinates.
// Screen y grows downward, so latitude is flipped.
func (v Viewport) Project(lon, lat float64) (x, y float64) {
	x = v.OriginX + (lon-v.MinLon)/(v.MaxLon-v.MinLon)*v.Width
	y = v.OriginY + (1-(lat-v.MinLat)/(v.MaxLat-v.MinLat))*v.Height
	return x, y
}

var (
	conusViewport = Viewport{
		MinLon: -125.0, MaxLon: -66.5,
		MinLat: 24.0, MaxLat: 49.5,
		OriginX: 0, OriginY: 0,
		Width: CanvasWidth, Height: 540,
	}

	alaskaViewport = Viewport{
		MinLon: -170.0, MaxLon: -129.5,
		MinLat: 51.0, MaxLat: 71.5,
		OriginX: 10, OriginY: 430,
		Width: 220, Height: 160,
	}

	hawaiiViewport = Viewport{
		MinLon: -160.5, MaxLon: -154.5,
		MinLat: 18.5, MaxLat: 22.5,
		OriginX: 270, OriginY: 500,
		Width: 130, Height: 90,
	}
)

// ViewportFor selects the drawing viewport for a region. Alaska and
// Hawaii lie far outside the contiguous bounding box and get their own
// insets; everything else shares the contiguous viewport.
func ViewportFor(fips string) Viewport {
	switch fips {
	case "02":
		return alaskaViewport
	case "15":
		return hawaiiViewport
	default:
		return conusViewport
	}
}
