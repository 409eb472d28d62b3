package types

import (
	"context"
	"slices"
	"time"

	"github.com/icodeforyou/spothub-go/slice"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SpotPrice is a single record as delivered by a price provider.
type SpotPrice struct {
	Start          time.Time
	PriceEurPerKwh decimal.Decimal // Tax-inclusive price in EUR/kWh
}

type PriceProvider interface {
	Name() string
	GetSpotPrices(ctx context.Context) ([]SpotPrice, error)
}

type PriceInterval struct {
	Start          time.Time
	Duration       time.Duration
	PriceEurPerKwh decimal.Decimal
}

// End is exclusive.
func (p PriceInterval) End() time.Time {
	return p.Start.Add(p.Duration)
}

func (p PriceInterval) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End())
}

func (p PriceInterval) PriceCentsPerKwh() decimal.Decimal {
	return p.PriceEurPerKwh.Mul(hundred)
}

func (p PriceInterval) CentsFloat() float64 {
	return p.PriceCentsPerKwh().InexactFloat64()
}

// PriceSeries is an immutable, start-ordered collection of fixed-duration
// price intervals. A new series is built for every fetch.
type PriceSeries struct {
	intervals []PriceInterval
	duration  time.Duration
}

// NewPriceSeries sorts a copy of prices by start time. Records without a
// start time are dropped.
func NewPriceSeries(prices []SpotPrice, duration time.Duration) PriceSeries {
	intervals := make([]PriceInterval, 0, len(prices))
	for _, p := range prices {
		if p.Start.IsZero() {
			continue
		}
		intervals = append(intervals, PriceInterval{
			Start:          p.Start,
			Duration:       duration,
			PriceEurPerKwh: p.PriceEurPerKwh,
		})
	}

	slices.SortStableFunc(intervals, func(a, b PriceInterval) int {
		return a.Start.Compare(b.Start)
	})

	return PriceSeries{intervals: intervals, duration: duration}
}

func (s PriceSeries) Len() int {
	return len(s.intervals)
}

func (s PriceSeries) IsEmpty() bool {
	return len(s.intervals) == 0
}

func (s PriceSeries) Duration() time.Duration {
	return s.duration
}

func (s PriceSeries) Intervals() []PriceInterval {
	return slices.Clone(s.intervals)
}

// FindCurrent returns the interval containing now. A gap in the feed, an
// empty series or a zero now yields false.
func (s PriceSeries) FindCurrent(now time.Time) (PriceInterval, bool) {
	if now.IsZero() {
		return PriceInterval{}, false
	}
	return slice.Find(s.intervals, func(p PriceInterval) bool { return p.Contains(now) })
}
