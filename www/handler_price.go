package www

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/icodeforyou/spothub-go/widget"
)

type PriceWidget interface {
	Snapshot(now time.Time) widget.Snapshot
	Refetch(ctx context.Context) error
}

// NewPriceHandler serves the widget snapshot. POST asks for a new series
// first; a failed fetch is reported inside the snapshot, not as an HTTP error.
func NewPriceHandler(logger *slog.Logger, w PriceWidget, tm *TemplateManager) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			if err := w.Refetch(r.Context()); err != nil {
				logger.Warn("refetch requested by user failed", slog.Any("error", err))
			}
		default:
			http.Error(rw, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		view := w.Snapshot(time.Now()).View()

		if wantsJSON(r) {
			rw.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(rw).Encode(view); err != nil {
				logger.Error("handling price request", slog.Any("error", err))
				http.Error(rw, "unable to encode snapshot", http.StatusInternalServerError)
			}
			return
		}

		rw.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("price_widget.html", view, &rw); err != nil {
			logger.Error("handling price request", slog.Any("error", err))
			http.Error(rw, err.Error(), http.StatusInternalServerError)
		}
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
