package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spothub-go/calc"
	"github.com/icodeforyou/spothub-go/slice"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/widget"
	"github.com/icodeforyou/spothub-go/www/chartjs"
)

// Number of upcoming intervals shown as bars
const chartBars = 12

type Snapshotter interface {
	Snapshot(now time.Time) widget.Snapshot
}

func NewChartHandler(logger *slog.Logger, w Snapshotter) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(rw, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		chart := upcomingChart(w.Snapshot(time.Now()))

		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(chart); err != nil {
			logger.Error("handling chart request", slog.Any("error", err))
			http.Error(rw, "unable to encode data points", http.StatusInternalServerError)
			return
		}
	}
}

// upcomingChart draws the next intervals as bars coloured by price band.
// Bars inside the cheapest window are highlighted.
func upcomingChart(s widget.Snapshot) chartjs.Chart {
	upcoming := s.Upcoming
	if len(upcoming) > chartBars {
		upcoming = upcoming[:chartBars]
	}

	times := slice.Map(upcoming, func(p types.PriceInterval) time.Time { return p.Start })
	chart := chartjs.NewChart("bar", "", chartjs.ClockLabels(times))
	ds := &chart.Data.Datasets[0]
	ds.Label = "c/kWh"
	ds.BackgroundColor = make([]string, len(upcoming))

	for i, p := range upcoming {
		ds.Data[i] = chartjs.FixedFloat64(p.CentsFloat(), 2)
		if inCheapest(s, p) {
			ds.BackgroundColor[i] = chartjs.ColorBlue
		} else {
			ds.BackgroundColor[i] = chartjs.BandColor(calc.BandForCents(p.CentsFloat()))
		}
	}

	chart.Options.Scales["YAxis1"] = chart.Options.Scales["YAxis1"].
		WithTitle("Price (c/kWh)")

	return chart
}

func inCheapest(s widget.Snapshot, p types.PriceInterval) bool {
	if !s.Cheapest.IsValid() {
		return false
	}
	w := s.Cheapest.Value()
	return !p.Start.Before(w.WindowStart) && p.Start.Before(w.WindowEnd)
}
