package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/feeds"
	"github.com/icodeforyou/spothub-go/localtime"
	"github.com/icodeforyou/spothub-go/widget"
	"github.com/lmittmann/tint"
)

// Fetches prices once through the configured providers and prints what the
// widget would show right now.
func main() {
	configPath := flag.String("config", "", "path to config file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339Nano,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger, os.Stdout); err != nil {
		logger.Error("pricecheck failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger, out io.Writer) error {
	cnfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := localtime.SetTimezone(cnfg.Gui.GetTimezone()); err != nil {
		return err
	}

	providers, err := feeds.FromConfig(cnfg.EnergyPrice)
	if err != nil {
		return err
	}

	w := widget.New(logger, providers, widget.Options{
		IntervalDuration: cnfg.EnergyPrice.GetIntervalDuration(),
		FetchTimeout:     cnfg.EnergyPrice.GetFetchTimeout(),
	})
	if err := w.Refetch(context.Background()); err != nil {
		return err
	}

	printView(out, w.Snapshot(time.Now()).View())
	return nil
}

func printView(out io.Writer, v widget.View) {
	if v.Current != nil {
		fmt.Fprintf(out, "Current:  %s  %6.2f c/kWh\n", v.Current.Clock, v.Current.PriceCents)
	} else {
		fmt.Fprintln(out, "Current:  no price for this interval")
	}

	if v.Cheapest == nil {
		fmt.Fprintf(out, "Cheapest: not enough prices left today (%d upcoming)\n", len(v.Upcoming))
		return
	}
	fmt.Fprintf(out, "Cheapest: %s  %6.2f c/kWh", v.Cheapest.Clock, v.Cheapest.AverageCents)
	if v.Countdown != nil {
		fmt.Fprintf(out, "  (%s)", v.Countdown.Label)
	}
	fmt.Fprintln(out)
	for _, s := range v.Cheapest.Slots {
		fmt.Fprintf(out, "          %s  %6.2f c/kWh\n", s.Clock, s.PriceCents)
	}
}
