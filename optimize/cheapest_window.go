package optimize

import (
	"time"

	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/shopspring/decimal"
)

// Number of consecutive intervals in a cheapest window (one hour of quarters).
const WindowSize = 4

var windowSizeDec = decimal.NewFromInt(WindowSize)

type Slot struct {
	Time       time.Time
	PriceCents decimal.Decimal
}

type CheapestWindow struct {
	StartIndex   int // Index into the upcoming sequence the search ran on
	WindowStart  time.Time
	WindowEnd    time.Time
	AverageCents decimal.Decimal
	Slots        []Slot
}

func (w CheapestWindow) AverageCentsFloat() float64 {
	return w.AverageCents.InexactFloat64()
}

// UpcomingUntilMidnight keeps the intervals starting at or after now and
// before the next midnight of the viewer's local calendar day.
func UpcomingUntilMidnight(series types.PriceSeries, now time.Time) []types.PriceInterval {
	return UpcomingUntil(series, now, localtime.NextMidnight(now))
}

// Upcoming keeps every interval starting at or after now, however far the
// feed reaches.
func Upcoming(series types.PriceSeries, now time.Time) []types.PriceInterval {
	upcoming := make([]types.PriceInterval, 0, series.Len())
	for _, p := range series.Intervals() {
		if !p.Start.Before(now) {
			upcoming = append(upcoming, p)
		}
	}
	return upcoming
}

func UpcomingUntil(series types.PriceSeries, now, until time.Time) []types.PriceInterval {
	upcoming := make([]types.PriceInterval, 0, series.Len())
	for _, p := range series.Intervals() {
		if !p.Start.Before(now) && p.Start.Before(until) {
			upcoming = append(upcoming, p)
		}
	}
	return upcoming
}

// CheapestHour slides a window of WindowSize entries over the upcoming
// intervals and returns the first window with the lowest mean price. Windows
// are formed by index, a gap inside the feed is not compensated for.
func CheapestHour(upcoming []types.PriceInterval) (CheapestWindow, bool) {
	if len(upcoming) < WindowSize {
		return CheapestWindow{}, false
	}

	bestIdx := -1
	var bestAvg decimal.Decimal
	for i := 0; i+WindowSize <= len(upcoming); i++ {
		avg := meanCents(upcoming[i : i+WindowSize])
		if bestIdx < 0 || avg.LessThan(bestAvg) {
			bestIdx = i
			bestAvg = avg
		}
	}

	window := upcoming[bestIdx : bestIdx+WindowSize]
	slots := make([]Slot, len(window))
	for i, p := range window {
		slots[i] = Slot{Time: p.Start, PriceCents: p.PriceCentsPerKwh()}
	}

	return CheapestWindow{
		StartIndex:   bestIdx,
		WindowStart:  window[0].Start,
		WindowEnd:    window[len(window)-1].End(),
		AverageCents: bestAvg,
		Slots:        slots,
	}, true
}

func meanCents(intervals []types.PriceInterval) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range intervals {
		sum = sum.Add(p.PriceEurPerKwh)
	}
	// Convert the EUR mean once so no rounded cent values are averaged
	return sum.Mul(decimal.NewFromInt(100)).DivRound(windowSizeDec, 8)
}
