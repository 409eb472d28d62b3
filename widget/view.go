package widget

import (
	"time"

	"github.com/icodeforyou/spothub-go/calc"
	"github.com/icodeforyou/spothub-go/convert"
	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/types"
)

// View is the serialisable form of a Snapshot used by the HTTP and MQTT
// boundaries. Times are RFC 3339, prices are c/kWh rounded to two decimals.
type View struct {
	Now           string         `json:"now"`
	State         State          `json:"state"`
	Loading       bool           `json:"loading"`
	Error         string         `json:"error,omitempty"`
	LastFetchedAt *string        `json:"lastFetchedAt,omitempty"`
	AnalyzedAt    *string        `json:"analyzedAt,omitempty"`
	Current       *IntervalView  `json:"current,omitempty"`
	Upcoming      []IntervalView `json:"upcoming"`
	Cheapest      *WindowView    `json:"cheapest,omitempty"`
	Countdown     *CountdownView `json:"countdown,omitempty"`
	Timeline      *TimelineView  `json:"timeline,omitempty"`
}

type IntervalView struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Clock      string         `json:"clock"`
	PriceCents float64        `json:"priceCents"`
	Band       calc.PriceBand `json:"band"`
}

type WindowView struct {
	Start        string         `json:"start"`
	End          string         `json:"end"`
	Clock        string         `json:"clock"`
	AverageCents float64        `json:"averageCents"`
	Band         calc.PriceBand `json:"band"`
	Slots        []IntervalView `json:"slots"`
}

type CountdownView struct {
	Label            string `json:"label"`
	IsActive         bool   `json:"isActive"`
	RemainingMinutes int    `json:"remainingMinutes"`
}

type TimelineView struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

func (s Snapshot) View() View {
	v := View{
		Now:      formatTime(s.Now),
		State:    s.State,
		Loading:  s.Loading,
		Error:    s.Error,
		Upcoming: make([]IntervalView, 0, len(s.Upcoming)),
	}

	if s.LastFetchedAt.IsValid() {
		t := formatTime(s.LastFetchedAt.Value())
		v.LastFetchedAt = &t
	}
	if s.AnalyzedAt.IsValid() {
		t := formatTime(s.AnalyzedAt.Value())
		v.AnalyzedAt = &t
	}
	if s.Current.IsValid() {
		c := intervalView(s.Current.Value())
		v.Current = &c
	}
	for _, p := range s.Upcoming {
		v.Upcoming = append(v.Upcoming, intervalView(p))
	}
	if s.Cheapest.IsValid() {
		w := s.Cheapest.Value()
		wv := WindowView{
			Start:        formatTime(w.WindowStart),
			End:          formatTime(w.WindowEnd),
			Clock:        clockRange(w.WindowStart, w.WindowEnd),
			AverageCents: convert.DecimalTwo(w.AverageCents),
			Band:         calc.BandForCents(w.AverageCentsFloat()),
			Slots:        make([]IntervalView, 0, len(w.Slots)),
		}
		for i, slot := range w.Slots {
			end := w.WindowEnd
			if i+1 < len(w.Slots) {
				end = w.Slots[i+1].Time
			}
			cents := slot.PriceCents.InexactFloat64()
			wv.Slots = append(wv.Slots, IntervalView{
				Start:      formatTime(slot.Time),
				End:        formatTime(end),
				Clock:      clockRange(slot.Time, end),
				PriceCents: convert.DecimalTwo(slot.PriceCents),
				Band:       calc.BandForCents(cents),
			})
		}
		v.Cheapest = &wv
	}
	if s.Countdown.IsValid() {
		c := s.Countdown.Value()
		v.Countdown = &CountdownView{
			Label:            c.Label,
			IsActive:         c.IsActive,
			RemainingMinutes: int(c.Remaining / time.Minute),
		}
	}
	if s.Timeline.IsValid() {
		tl := s.Timeline.Value()
		v.Timeline = &TimelineView{
			Left:  convert.RoundFloat64(tl.LeftFraction, 4),
			Width: convert.RoundFloat64(tl.WidthFraction, 4),
		}
	}

	return v
}

func intervalView(p types.PriceInterval) IntervalView {
	return IntervalView{
		Start:      formatTime(p.Start),
		End:        formatTime(p.End()),
		Clock:      clockRange(p.Start, p.End()),
		PriceCents: convert.DecimalTwo(p.PriceCentsPerKwh()),
		Band:       calc.BandForCents(p.CentsFloat()),
	}
}

func clockRange(from, to time.Time) string {
	return localtime.FormatClock(from) + " - " + localtime.FormatClock(to)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(localtime.Location()).Format(time.RFC3339)
}
