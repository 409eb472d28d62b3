package calc

import (
	"time"

	"github.com/icodeforyou/spothub-go/optimize"
)

// Timeline places a window on a [0,1] scale over a visible time range.
type Timeline struct {
	LeftFraction  float64
	WidthFraction float64
}

// ProjectTimeline is undefined for an empty or inverted range. Values are not
// clamped, a window outside the range yields fractions outside [0,1].
func ProjectTimeline(window optimize.CheapestWindow, visibleStart, visibleEnd time.Time) (Timeline, bool) {
	if !visibleEnd.After(visibleStart) {
		return Timeline{}, false
	}

	span := float64(visibleEnd.Sub(visibleStart))
	return Timeline{
		LeftFraction:  float64(window.WindowStart.Sub(visibleStart)) / span,
		WidthFraction: float64(window.WindowEnd.Sub(window.WindowStart)) / span,
	}, true
}
