package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/spothub-go/config"
)

type Refetcher interface {
	Refetch(ctx context.Context) error
}

// NewPriceTask refreshes the widget's series. A failed fetch is not retried,
// the widget keeps showing the last series until the next run.
func NewPriceTask(logger *slog.Logger, refetcher Refetcher, cnfg config.AppConfigEnergyPrice) func() {
	return func() {
		logger.Debug("running price task...")

		// Refetch applies its own fetch timeout, this only bounds the archive write
		ctx, cancel := context.WithTimeout(context.Background(), cnfg.GetFetchTimeout()+10*time.Second)
		defer cancel()

		if err := refetcher.Refetch(ctx); err != nil {
			logger.Error("price task error", slog.Any("error", err))
			return
		}

		logger.Info("price task done")
	}
}
