package widget

import (
	"time"

	"github.com/icodeforyou/spothub-go/calc"
	"github.com/icodeforyou/spothub-go/countdown"
	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/optimize"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/types/maybe"
)

// Snapshot is a read-only view of the widget handed to the rendering side.
// Upcoming holds every known interval starting at or after Now. Cheapest and
// Timeline come from the analysis made at AnalyzedAt.
type Snapshot struct {
	Now           time.Time
	State         State
	Loading       bool
	Error         string
	LastFetchedAt maybe.Maybe[time.Time]
	AnalyzedAt    maybe.Maybe[time.Time]
	Current       maybe.Maybe[types.PriceInterval]
	Upcoming      []types.PriceInterval
	Cheapest      maybe.Maybe[optimize.CheapestWindow]
	Countdown     maybe.Maybe[countdown.Countdown]
	Timeline      maybe.Maybe[calc.Timeline]
}

// analysis holds what is derived once per series and local day: the
// cheapest hour until midnight and where it sits on the timeline.
type analysis struct {
	at         time.Time
	validUntil time.Time
	cheapest   maybe.Maybe[optimize.CheapestWindow]
	timeline   maybe.Maybe[calc.Timeline]
}

func analyze(series types.PriceSeries, now time.Time) analysis {
	upcoming := optimize.UpcomingUntilMidnight(series, now)
	a := analysis{at: now, validUntil: localtime.NextMidnight(now)}

	w, ok := optimize.CheapestHour(upcoming)
	if !ok {
		return a
	}
	a.cheapest = maybe.Some(w)

	if len(upcoming) > 0 {
		visibleStart := upcoming[0].Start
		visibleEnd := upcoming[len(upcoming)-1].End()
		if tl, ok := calc.ProjectTimeline(w, visibleStart, visibleEnd); ok {
			a.timeline = maybe.Some(tl)
		}
	}

	return a
}

// expired reports whether the local day the analysis was made for is over.
func (a analysis) expired(now time.Time) bool {
	return !a.at.IsZero() && !now.Before(a.validUntil)
}
