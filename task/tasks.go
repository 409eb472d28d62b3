package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/database"
	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	PriceTask       func()
	MaintenanceTask func()
}

func NewTasks(db *database.Database, refetcher Refetcher, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:            cron.New(cron.WithLocation(localtime.Location())),
		cnfg:            cnfg,
		PriceTask:       NewPriceTask(logger.With(slog.String("task", "price")), refetcher, cnfg.EnergyPrice),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() error {
	if t.cnfg.EnergyPrice.RunAt != "" {
		if _, err := t.cron.AddFunc(t.cnfg.EnergyPrice.RunAt, t.PriceTask); err != nil {
			return fmt.Errorf("register price task: %w", err)
		}
	}
	if _, err := t.cron.AddFunc("30 2 * * *", t.MaintenanceTask); err != nil {
		return fmt.Errorf("register maintenance task: %w", err)
	}
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
