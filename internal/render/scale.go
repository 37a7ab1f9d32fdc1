package render

import (
	"fmt"
	"math"
)

// Fill is a resolved region fill: an RGB hex color and an opacity.
type Fill struct {
	Color   string
	Opacity float64
}

// Color ramp endpoints: a light wash through a saturated blue. The log
// scale below keeps a handful of very large counts from washing out
// differentiation among the small ones.
var (
	rampLow  = [3]int{222, 235, 247}
	rampHigh = [3]int{8, 81, 156}
)

// neutralFill is used for regions with no data and for failed regions;
// a failed query must not masquerade as a real zero shade.
var neutralFill = Fill{Color: "#c9c9c9", Opacity: 0.35}

// FillFor maps a region's count onto the color scale. Zero and failed
// counts get the neutral fill; positive counts map through
// t = min(1, ln(count+1)/ln(maxCount+1)) into the ramp.
func FillFor(count, maxCount int) Fill {
	if count <= 0 || maxCount <= 0 {
		return neutralFill
	}

	t := math.Log(float64(count)+1) / math.Log(float64(maxCount)+1)
	if t > 1 {
		t = 1
	}

	return Fill{
		Color:   lerpColor(rampLow, rampHigh, t),
		Opacity: 0.45 + 0.5*t,
	}
}

func lerpColor(low, high [3]int, t float64) string {
	var c [3]int
	for i := 0; i < 3; i++ {
		c[i] = low[i] + int(math.Round(t*float64(high[i]-low[i])))
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// FormatCount renders a count for a map label, abbreviating above 1000
// so labels stay inside small regions.
func FormatCount(count int) string {
	if count > 1000 {
		v := float64(count) / 1000
		if v >= 100 {
			return fmt.Sprintf("%.0fk", v)
		}
		return fmt.Sprintf("%.1fk", v)
	}
	return fmt.Sprintf("%d", count)
}
