package countdown

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrTickerRunning = errors.New("ticker is already running")

// Ticker owns a single periodic timer. It is started once per widget
// lifetime and must be stopped on teardown.
type Ticker struct {
	logger   *slog.Logger
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewTicker(logger *slog.Logger, interval time.Duration) *Ticker {
	return &Ticker{logger: logger, interval: interval}
}

// Start calls onTick with the tick time until ctx is done or Stop is called.
func (t *Ticker) Start(ctx context.Context, onTick func(now time.Time)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrTickerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	t.logger.Debug("starting clock ticker", slog.Duration("interval", t.interval))

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				onTick(now)
			}
		}
	}(t.done)

	return nil
}

// Stop releases the timer and waits for the tick loop to exit. Calling it on
// a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.logger.Debug("clock ticker stopped")
}
