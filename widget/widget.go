package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/icodeforyou/spothub-go/countdown"
	"github.com/icodeforyou/spothub-go/optimize"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/types/maybe"
)

// Archive receives every successfully fetched series.
type Archive interface {
	SavePriceIntervals(ctx context.Context, intervals []types.PriceInterval) error
}

type Options struct {
	IntervalDuration time.Duration // Duration of one feed record, 15 min when zero
	FetchTimeout     time.Duration // 10 s when zero
	TickInterval     time.Duration // 1 s when zero
	Archive          Archive
	Now              func() time.Time
}

type Widget struct {
	logger    *slog.Logger
	providers []types.PriceProvider
	opts      Options
	ticker    *countdown.Ticker

	mu            sync.RWMutex
	state         State
	series        types.PriceSeries
	analysis      analysis
	lastErr       error
	lastFetchedAt time.Time
	inFlight      int
	appliedReq    uint64

	nextReq atomic.Uint64

	listenersMu sync.RWMutex
	listeners   []func(Snapshot)
}

func New(logger *slog.Logger, providers []types.PriceProvider, opts Options) *Widget {
	if len(providers) == 0 {
		panic("no price providers")
	}
	if opts.IntervalDuration <= 0 {
		opts.IntervalDuration = 15 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Widget{
		logger:    logger,
		providers: providers,
		opts:      opts,
		ticker:    countdown.NewTicker(logger, opts.TickInterval),
		state:     StateIdle,
	}
}

// OnSnapshot registers fn to receive a fresh snapshot after every fetch
// and on every clock tick.
func (w *Widget) OnSnapshot(fn func(Snapshot)) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start fetches once and starts the clock tick. Stop must be called on teardown.
func (w *Widget) Start(ctx context.Context) error {
	if err := w.ticker.Start(ctx, func(now time.Time) { w.publish(w.Snapshot(now)) }); err != nil {
		return fmt.Errorf("start widget: %w", err)
	}
	go func() {
		if err := w.Refetch(ctx); err != nil {
			w.logger.Warn("initial price fetch failed", slog.Any("error", err))
		}
	}()
	return nil
}

func (w *Widget) Stop() {
	w.ticker.Stop()
}

// Refetch fetches a new series and replaces the current one. When fetches
// overlap, a response older than the latest applied one is discarded.
func (w *Widget) Refetch(ctx context.Context) error {
	reqID := w.nextReq.Add(1)

	w.mu.Lock()
	w.inFlight++
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, w.opts.FetchTimeout)
	defer cancel()

	prices, provider, err := w.fetch(ctx)
	now := w.opts.Now()

	var series types.PriceSeries
	var fetchErr *FetchError
	if err != nil {
		fetchErr = newFetchError(err)
	} else {
		series = types.NewPriceSeries(prices, w.opts.IntervalDuration)
	}

	w.mu.Lock()
	w.inFlight--
	if reqID < w.appliedReq {
		w.mu.Unlock()
		w.logger.Debug("discarding stale price response", slog.Uint64("request", reqID))
		if fetchErr != nil {
			return fetchErr
		}
		return nil
	}
	w.appliedReq = reqID
	if fetchErr != nil {
		w.state = StateError
		w.lastErr = fetchErr
	} else {
		w.state = StateLoaded
		w.series = series
		w.analysis = analyze(series, now)
		w.lastErr = nil
		w.lastFetchedAt = now
	}
	w.mu.Unlock()

	if fetchErr != nil {
		w.logger.Error("price fetch failed", slog.Any("error", err))
		w.publish(w.Snapshot(now))
		return fetchErr
	}

	w.logger.Info("prices fetched",
		slog.String("provider", provider),
		slog.Int("intervals", series.Len()))

	if w.opts.Archive != nil && !series.IsEmpty() {
		if err := w.opts.Archive.SavePriceIntervals(ctx, series.Intervals()); err != nil {
			w.logger.Warn("failed to archive prices", slog.Any("error", err))
		}
	}

	w.publish(w.Snapshot(now))
	return nil
}

// fetch asks the providers in order and returns the first non-empty result.
// An empty but successful answer is only used when no provider has data.
func (w *Widget) fetch(ctx context.Context) ([]types.SpotPrice, string, error) {
	var errs []error
	var emptyFrom string
	for _, p := range w.providers {
		prices, err := p.GetSpotPrices(ctx)
		if err != nil {
			w.logger.Warn("price provider failed", slog.String("provider", p.Name()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if len(prices) > 0 {
			return prices, p.Name(), nil
		}
		if emptyFrom == "" {
			emptyFrom = p.Name()
		}
	}

	if emptyFrom != "" {
		return nil, emptyFrom, nil
	}
	return nil, "", errors.Join(errs...)
}

func (w *Widget) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Snapshot projects the widget at now. The cheapest window is the one found
// when the series arrived, or at the start of the current local day if that
// came later. The current interval, the upcoming list and the countdown
// follow now.
func (w *Widget) Snapshot(now time.Time) Snapshot {
	w.refreshAnalysis(now)

	w.mu.RLock()
	defer w.mu.RUnlock()

	s := Snapshot{
		Now:      now,
		State:    w.state,
		Loading:  w.inFlight > 0,
		Upcoming: optimize.Upcoming(w.series, now),
		Cheapest: w.analysis.cheapest,
		Timeline: w.analysis.timeline,
	}
	if !w.analysis.at.IsZero() {
		s.AnalyzedAt = maybe.Some(w.analysis.at)
	}
	if w.lastErr != nil {
		s.Error = w.lastErr.Error()
	}
	if !w.lastFetchedAt.IsZero() {
		s.LastFetchedAt = maybe.Some(w.lastFetchedAt)
	}
	if current, ok := w.series.FindCurrent(now); ok {
		s.Current = maybe.Some(current)
	}
	if w.analysis.cheapest.IsValid() {
		s.Countdown = maybe.Some(countdown.Project(w.analysis.cheapest.Value().WindowStart, now))
	}

	return s
}

// refreshAnalysis searches the new day's cheapest hour once now has passed
// the midnight that bounded the previous search.
func (w *Widget) refreshAnalysis(now time.Time) {
	w.mu.RLock()
	expired := w.analysis.expired(now)
	w.mu.RUnlock()
	if !expired {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.analysis.expired(now) {
		w.analysis = analyze(w.series, now)
		w.logger.Debug("new local day, cheapest hour searched again", slog.Time("at", now))
	}
}

func (w *Widget) publish(s Snapshot) {
	w.listenersMu.RLock()
	listeners := slices.Clone(w.listeners)
	w.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}
