package database

import (
	"context"
	"fmt"
	"time"

	"github.com/icodeforyou/spothub-go/types"
	"github.com/shopspring/decimal"
)

// SavePriceIntervals archives a fetched series. Intervals already stored are
// overwritten, the feed may revise prices.
func (d *Database) SavePriceIntervals(ctx context.Context, intervals []types.PriceInterval) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving price intervals, begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_interval (start, duration_minutes, price_eur, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(start) DO UPDATE SET
			duration_minutes = excluded.duration_minutes,
			price_eur = excluded.price_eur,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("saving price intervals, prepare: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, p := range intervals {
		_, err := stmt.ExecContext(ctx,
			p.Start.UTC().Format(time.RFC3339),
			int(p.Duration/time.Minute),
			p.PriceEurPerKwh.String(),
			fetchedAt)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("saving price interval %s: %w", p.Start.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving price intervals, commit: %w", err)
	}
	return nil
}

// GetPriceIntervalsFrom returns archived intervals starting at or after from,
// ordered by start.
func (d *Database) GetPriceIntervalsFrom(ctx context.Context, from time.Time) ([]types.PriceInterval, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT start, duration_minutes, price_eur
		FROM price_interval
		WHERE start >= ?
		ORDER BY start ASC`,
		from.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("fetching price intervals: %w", err)
	}
	defer rows.Close()

	var intervals []types.PriceInterval
	for rows.Next() {
		var start, price string
		var minutes int
		if err := rows.Scan(&start, &minutes, &price); err != nil {
			return nil, fmt.Errorf("scanning price interval: %w", err)
		}
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("parsing price interval start %q: %w", start, err)
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parsing price interval price %q: %w", price, err)
		}
		intervals = append(intervals, types.PriceInterval{
			Start:          t,
			Duration:       time.Duration(minutes) * time.Minute,
			PriceEurPerKwh: p,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading price interval rows: %w", err)
	}

	return intervals, nil
}

func (d *Database) PurgePriceIntervals(ctx context.Context, retentionDays int) error {
	return d.purgeBefore(ctx, "price_interval", "start", retentionDays)
}
