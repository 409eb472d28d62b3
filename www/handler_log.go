package www

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/icodeforyou/spothub-go/database"
	"github.com/icodeforyou/spothub-go/logging"
)

const (
	defaultLogPageSize = 25
	maxLogPageSize     = 200
)

type LogReader interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
}

// positiveInt returns the query value of key when it is a number above zero.
func positiveInt(q url.Values, key string) (int, bool) {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// NewLogHandler serves the log page, and with ?page=N one page of entries
// at or above ?level (default: debug).
func NewLogHandler(logger *slog.Logger, db LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html")

		q := r.URL.Query()
		page, ok := positiveInt(q, "page")
		if !ok {
			if err := tm.ExecuteToWriter("log.html", nil, &w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		pageSize, ok := positiveInt(q, "pageSize")
		if !ok {
			pageSize = defaultLogPageSize
		}
		pageSize = min(pageSize, maxLogPageSize)

		var level *string
		if q.Has("level") {
			s := q.Get("level")
			level = &s
		}
		minLvl := logging.ParseLevel(level, slog.LevelDebug)

		e, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := struct {
			Page     int
			PageSize int
			Entries  []database.LogEntryRow
		}{
			Page:     page + 1,
			PageSize: pageSize,
			Entries:  e,
		}

		if err := tm.ExecuteToWriter("log_entries.html", data, &w); err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
