package www

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/icodeforyou/spothub-go/database"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/widget"
	"github.com/icodeforyou/spothub-go/www/chartjs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

type staticProvider struct {
	prices []types.SpotPrice
	err    error
}

func (p staticProvider) Name() string { return "static" }

func (p staticProvider) GetSpotPrices(context.Context) ([]types.SpotPrice, error) {
	return p.prices, p.err
}

// fixedClockWidget answers every snapshot as seen at now.
type fixedClockWidget struct {
	w        *widget.Widget
	now      time.Time
	refetchs int
}

func (f *fixedClockWidget) Snapshot(time.Time) widget.Snapshot { return f.w.Snapshot(f.now) }

func (f *fixedClockWidget) Refetch(ctx context.Context) error {
	f.refetchs++
	return f.w.Refetch(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWidget(t *testing.T, provider staticProvider) *fixedClockWidget {
	t.Helper()
	return newTestWidgetAt(t, testNow, provider)
}

func newTestWidgetAt(t *testing.T, now time.Time, provider staticProvider) *fixedClockWidget {
	t.Helper()
	w := widget.New(discardLogger(), []types.PriceProvider{provider}, widget.Options{
		Now: func() time.Time { return now },
	})
	return &fixedClockWidget{w: w, now: now}
}

func quarterPrices(start time.Time, cents ...float64) []types.SpotPrice {
	prices := make([]types.SpotPrice, len(cents))
	for i, c := range cents {
		prices[i] = types.SpotPrice{
			Start:          start.Add(time.Duration(i) * 15 * time.Minute),
			PriceEurPerKwh: decimal.NewFromFloat(c).Div(decimal.NewFromInt(100)),
		}
	}
	return prices
}

// Eight quarters from 12:00, the cheapest hour is 12:30-13:30.
func testPrices() []types.SpotPrice {
	return quarterPrices(testNow, 10, 9, 3, 2, 1, 4, 12, 14)
}

func newTestTemplates(t *testing.T) *TemplateManager {
	t.Helper()
	tm, err := NewTemplateManager(discardLogger(), nil)
	require.NoError(t, err)
	return tm
}

func TestPriceHandlerJSON(t *testing.T) {
	fw := newTestWidget(t, staticProvider{prices: testPrices()})
	require.NoError(t, fw.w.Refetch(context.Background()))
	h := NewPriceHandler(discardLogger(), fw, newTestTemplates(t))

	req := httptest.NewRequest(http.MethodGet, "/price", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view widget.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, widget.StateLoaded, view.State)
	require.NotNil(t, view.Current)
	assert.Equal(t, 10.0, view.Current.PriceCents)
	require.NotNil(t, view.Cheapest)
	assert.Equal(t, 2.5, view.Cheapest.AverageCents)
	assert.Equal(t, "12:30 - 13:30", view.Cheapest.Clock)
	require.NotNil(t, view.Countdown)
	assert.Equal(t, "30min", view.Countdown.Label)
	assert.Len(t, view.Upcoming, 8)
}

func TestPriceHandlerHTML(t *testing.T) {
	fw := newTestWidget(t, staticProvider{prices: testPrices()})
	require.NoError(t, fw.w.Refetch(context.Background()))
	h := NewPriceHandler(discardLogger(), fw, newTestTemplates(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/price", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="price-widget"`)
	assert.Contains(t, body, "12:30 - 13:30")
	assert.Contains(t, body, "2.50 c/kWh")
	assert.Contains(t, body, "30min")
}

func TestPriceHandlerPostRefetches(t *testing.T) {
	fw := newTestWidget(t, staticProvider{err: &types.StatusError{StatusCode: http.StatusServiceUnavailable}})
	h := NewPriceHandler(discardLogger(), fw, newTestTemplates(t))

	req := httptest.NewRequest(http.MethodPost, "/price", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fw.refetchs)

	var view widget.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, widget.StateError, view.State)
	assert.Equal(t, "HTTP 503", view.Error)
}

func TestPriceHandlerMethodNotAllowed(t *testing.T) {
	fw := newTestWidget(t, staticProvider{})
	h := NewPriceHandler(discardLogger(), fw, newTestTemplates(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/price", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChartHandlerHighlightsCheapestWindow(t *testing.T) {
	fw := newTestWidget(t, staticProvider{prices: testPrices()})
	require.NoError(t, fw.w.Refetch(context.Background()))

	rec := httptest.NewRecorder()
	NewChartHandler(discardLogger(), fw).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var chart chartjs.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Equal(t, "bar", chart.Type)
	assert.Equal(t, "12:00", chart.Data.Labels[0])

	ds := chart.Data.Datasets[0]
	require.Len(t, ds.BackgroundColor, 8)
	for i, color := range ds.BackgroundColor {
		highlighted := i >= 2 && i < 6
		assert.Equal(t, highlighted, color == chartjs.ColorBlue, "bar %d", i)
	}
	assert.Equal(t, 3.0, *ds.Data[2])
}

func TestChartHandlerShowsBarsPastMidnight(t *testing.T) {
	lateEvening := time.Date(2025, 3, 10, 23, 0, 0, 0, time.Local)
	cents := []float64{8, 7, 8, 9}
	for range 12 {
		cents = append(cents, 1)
	}
	fw := newTestWidgetAt(t, lateEvening, staticProvider{prices: quarterPrices(lateEvening, cents...)})
	require.NoError(t, fw.w.Refetch(context.Background()))

	rec := httptest.NewRecorder()
	NewChartHandler(discardLogger(), fw).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var chart chartjs.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Len(t, chart.Data.Labels, chartBars)
	assert.Equal(t, "23:00", chart.Data.Labels[0])
	assert.Equal(t, "00:00", chart.Data.Labels[4])
	assert.Equal(t, "01:45", chart.Data.Labels[chartBars-1])

	// The cheapest hour is still searched before midnight only
	ds := chart.Data.Datasets[0]
	for i, color := range ds.BackgroundColor {
		assert.Equal(t, i < 4, color == chartjs.ColorBlue, "bar %d", i)
	}
	assert.Equal(t, 1.0, *ds.Data[chartBars-1])
}

func TestChartHandlerIdle(t *testing.T) {
	fw := newTestWidget(t, staticProvider{})

	rec := httptest.NewRecorder()
	NewChartHandler(discardLogger(), fw).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var chart chartjs.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Empty(t, chart.Data.Labels)
}

type fakeHistory struct {
	intervals []types.PriceInterval
	err       error
	from      time.Time
}

func (f *fakeHistory) GetPriceIntervalsFrom(_ context.Context, from time.Time) ([]types.PriceInterval, error) {
	f.from = from
	return f.intervals, f.err
}

func TestHistoryHandler(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	db := &fakeHistory{intervals: []types.PriceInterval{
		{Start: start, Duration: 15 * time.Minute, PriceEurPerKwh: decimal.RequireFromString("0.0512")},
		{Start: start.Add(15 * time.Minute), Duration: 15 * time.Minute, PriceEurPerKwh: decimal.RequireFromString("0.0498")},
	}}

	rec := httptest.NewRecorder()
	NewHistoryHandler(discardLogger(), db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var chart chartjs.Chart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	assert.Equal(t, []string{"00:00", "00:15"}, chart.Data.Labels)
	assert.Equal(t, 5.12, *chart.Data.Datasets[0].Data[0])

	lt := db.from.In(time.Local)
	assert.Equal(t, 0, lt.Hour())
	assert.Equal(t, 0, lt.Minute())
}

func TestHistoryHandlerError(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHistoryHandler(discardLogger(), &fakeHistory{err: errors.New("disk I/O error")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeLogReader struct {
	entries  []database.LogEntryRow
	minLvl   slog.Level
	pageSize int
}

func (f *fakeLogReader) GetLogEntries(_ context.Context, minLvl slog.Level, _, pageSize int) ([]database.LogEntryRow, error) {
	f.minLvl, f.pageSize = minLvl, pageSize
	if len(f.entries) > pageSize {
		return f.entries[:pageSize], nil
	}
	return f.entries, nil
}

func TestLogHandler(t *testing.T) {
	reader := &fakeLogReader{entries: []database.LogEntryRow{
		{Timestamp: testNow, Level: int(slog.LevelWarn), Message: "price provider failed", Attrs: `{"provider":"spot-hinta.fi"}`},
		{Timestamp: testNow, Level: int(slog.LevelInfo), Message: "prices fetched"},
	}}
	h := NewLogHandler(discardLogger(), reader, newTestTemplates(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="log-entries"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log?page=1&pageSize=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "price provider failed")
	assert.NotContains(t, body, "prices fetched")
	assert.True(t, strings.Contains(body, "page=2&pageSize=1"), body)
	assert.Equal(t, slog.LevelDebug, reader.minLvl)
}

func TestLogHandlerQuery(t *testing.T) {
	reader := &fakeLogReader{}
	h := NewLogHandler(discardLogger(), reader, newTestTemplates(t))

	tests := []struct {
		query    string
		pageSize int
		minLvl   slog.Level
	}{
		{"page=1", defaultLogPageSize, slog.LevelDebug},
		{"page=1&pageSize=0", defaultLogPageSize, slog.LevelDebug},
		{"page=1&pageSize=ten", defaultLogPageSize, slog.LevelDebug},
		{"page=1&pageSize=5000", maxLogPageSize, slog.LevelDebug},
		{"page=1&level=warn", defaultLogPageSize, slog.LevelWarn},
		{"page=1&level=nonsense", defaultLogPageSize, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log?"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.pageSize, reader.pageSize)
			assert.Equal(t, tt.minLvl, reader.minLvl)
		})
	}

	// A page below one shows the log page itself
	reader.pageSize = 0
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log?page=-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="log-entries"`)
	assert.Zero(t, reader.pageSize)
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(discardLogger())
	go hub.Run(ctx)

	client := &Client{logger: discardLogger(), hub: hub, send: make(chan []byte, 1), name: "test"}
	require.True(t, hub.register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Send([]byte("hello"))
	select {
	case msg := <-client.send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	hub.unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)

	cancel()
	<-hub.done
	assert.False(t, hub.register(client))
}
