package www

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/slice"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/www/chartjs"
)

type PriceHistory interface {
	GetPriceIntervalsFrom(ctx context.Context, from time.Time) ([]types.PriceInterval, error)
}

// NewHistoryHandler charts the archived prices since local midnight,
// including what is already known for the rest of the feed.
func NewHistoryHandler(logger *slog.Logger, db PriceHistory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		intervals, err := db.GetPriceIntervalsFrom(r.Context(), localtime.Midnight(time.Now()))
		if err != nil {
			logger.Error("handling history request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		times := slice.Map(intervals, func(p types.PriceInterval) time.Time { return p.Start })
		chart := chartjs.NewChart("line", "", chartjs.ClockLabels(times))
		for i, p := range intervals {
			chart.Data.Datasets[0].Data[i] = chartjs.FixedFloat64(p.CentsFloat(), 2)
		}
		chart.Options.Scales["YAxis1"] = chart.Options.Scales["YAxis1"].
			WithTitle("Price (c/kWh)")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(chart); err != nil {
			logger.Error("handling history request", slog.Any("error", err))
			http.Error(w, "unable to encode data points", http.StatusInternalServerError)
		}
	}
}
