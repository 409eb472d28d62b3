package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/database"
	"github.com/icodeforyou/spothub-go/feeds"
	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/logging"
	"github.com/icodeforyou/spothub-go/mqtt"
	"github.com/icodeforyou/spothub-go/task"
	"github.com/icodeforyou/spothub-go/widget"
	"github.com/icodeforyou/spothub-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := localtime.SetTimezone(cnfg.Gui.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set GUI timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("spothub is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path, database.WithBackupDir(cnfg.Database.GetBackupDir()))
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	providers, err := feeds.FromConfig(cnfg.EnergyPrice)
	if err != nil {
		panic(fmt.Sprintf("failed to create price providers: %v", err))
	}

	priceWidget := widget.New(logger.With("module", "widget"), providers, widget.Options{
		IntervalDuration: cnfg.EnergyPrice.GetIntervalDuration(),
		FetchTimeout:     cnfg.EnergyPrice.GetFetchTimeout(),
		Archive:          db,
	})

	if cnfg.Mqtt.Enabled {
		publisher := mqtt.New(cnfg.Mqtt)
		if err := publisher.Connect(); err != nil {
			// The client keeps retrying, snapshots are dropped until it connects
			logger.Warn("mqtt connection error", slog.Any("error", err))
		}
		defer publisher.Disconnect()
		priceWidget.OnSnapshot(publisher.OnSnapshot)
	}

	server, err := www.NewServer(db, priceWidget, cnfg.Api)
	if err != nil {
		panic(fmt.Sprintf("failed to create server: %v", err))
	}

	tasks := task.NewTasks(db, priceWidget, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := tasks.Run(); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer tasks.Stop()
	}

	if err := priceWidget.Start(ctx); err != nil {
		panic(fmt.Sprintf("failed to start price widget: %v", err))
	}
	defer priceWidget.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
