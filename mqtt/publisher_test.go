package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/types"
	"github.com/icodeforyou/spothub-go/widget"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 10, 19, 18, 0, 0, 0, time.Local)

type provider struct {
	prices []types.SpotPrice
	err    error
}

func (p *provider) Name() string { return "test" }

func (p *provider) GetSpotPrices(context.Context) ([]types.SpotPrice, error) {
	return p.prices, p.err
}

func quarters(centsPerKwh ...float64) []types.SpotPrice {
	prices := make([]types.SpotPrice, len(centsPerKwh))
	for i, c := range centsPerKwh {
		prices[i] = types.SpotPrice{
			Start:          start.Add(time.Duration(i) * 15 * time.Minute),
			PriceEurPerKwh: decimal.NewFromFloat(c).Div(decimal.NewFromInt(100)),
		}
	}
	return prices
}

func newTestPublisher(t *testing.T) (*Publisher, *[]Message) {
	t.Helper()
	prefix := "home/spot/"
	p := New(config.AppConfigMqtt{Host: "localhost", Port: 1883, TopicPrefix: &prefix})
	p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	var sent []Message
	p.publish = func(msg Message) error {
		sent = append(sent, msg)
		return nil
	}
	return p, &sent
}

func TestPublisherSnapshotAndCountdown(t *testing.T) {
	p, sent := newTestPublisher(t)
	prov := &provider{prices: quarters(8, 2, 2, 2, 2, 9)}
	w := widget.New(slog.New(slog.NewTextHandler(io.Discard, nil)), []types.PriceProvider{prov},
		widget.Options{Now: func() time.Time { return start }})
	w.OnSnapshot(p.OnSnapshot)

	require.NoError(t, w.Refetch(context.Background()))
	require.Len(t, *sent, 2)

	snapshot := (*sent)[0]
	assert.Equal(t, "home/spot/snapshot", snapshot.Topic)
	assert.True(t, snapshot.Retained)
	var view widget.View
	require.NoError(t, json.Unmarshal(snapshot.Payload, &view))
	assert.Equal(t, widget.StateLoaded, view.State)
	require.NotNil(t, view.Cheapest)
	assert.Equal(t, 2.0, view.Cheapest.AverageCents)

	countdown := (*sent)[1]
	assert.Equal(t, "home/spot/countdown", countdown.Topic)
	assert.False(t, countdown.Retained)
	assert.Equal(t, "15min", string(countdown.Payload))

	// Nothing changed
	p.OnSnapshot(w.Snapshot(start))
	assert.Len(t, *sent, 2)

	// Countdown moved on, snapshot unchanged
	p.OnSnapshot(w.Snapshot(start.Add(5 * time.Minute)))
	require.Len(t, *sent, 3)
	assert.Equal(t, "10min", string((*sent)[2].Payload))

	p.OnSnapshot(w.Snapshot(start.Add(15 * time.Minute)))
	require.Len(t, *sent, 4)
	assert.Equal(t, "Now", string((*sent)[3].Payload))
}

func TestPublisherRepublishesOnError(t *testing.T) {
	p, sent := newTestPublisher(t)
	prov := &provider{prices: quarters(8, 2, 2, 2, 2, 9)}
	w := widget.New(slog.New(slog.NewTextHandler(io.Discard, nil)), []types.PriceProvider{prov},
		widget.Options{Now: func() time.Time { return start }})
	w.OnSnapshot(p.OnSnapshot)

	require.NoError(t, w.Refetch(context.Background()))
	*sent = nil

	prov.err = &types.StatusError{StatusCode: 500}
	require.Error(t, w.Refetch(context.Background()))

	require.Len(t, *sent, 1)
	var view widget.View
	require.NoError(t, json.Unmarshal((*sent)[0].Payload, &view))
	assert.Equal(t, widget.StateError, view.State)
	assert.Equal(t, "HTTP 500", view.Error)
	// The last series is kept, so the cheapest hour is still published
	assert.NotNil(t, view.Cheapest)
}

func TestPublisherKeepsGoingOnPublishError(t *testing.T) {
	p, _ := newTestPublisher(t)
	calls := 0
	p.publish = func(Message) error {
		calls++
		return errors.New("not connected")
	}

	w := widget.New(slog.New(slog.NewTextHandler(io.Discard, nil)),
		[]types.PriceProvider{&provider{prices: quarters(8, 2, 2, 2, 2, 9)}},
		widget.Options{Now: func() time.Time { return start }})
	w.OnSnapshot(p.OnSnapshot)
	require.NoError(t, w.Refetch(context.Background()))

	assert.Equal(t, 2, calls)
}

func TestPublisherRepublishesAfterMidnight(t *testing.T) {
	p, sent := newTestPublisher(t)
	cents := make([]float64, 7*4)
	for i := range cents {
		cents[i] = 9
	}
	cents[4], cents[5], cents[6], cents[7] = 2, 2, 2, 2
	w := widget.New(slog.New(slog.NewTextHandler(io.Discard, nil)),
		[]types.PriceProvider{&provider{prices: quarters(cents...)}},
		widget.Options{Now: func() time.Time { return start }})
	w.OnSnapshot(p.OnSnapshot)
	require.NoError(t, w.Refetch(context.Background()))
	*sent = nil

	// Only three quarters are left after midnight, too few for an hour
	midnight := time.Date(2025, 10, 20, 0, 3, 0, 0, time.Local)
	p.OnSnapshot(w.Snapshot(midnight))

	require.NotEmpty(t, *sent)
	assert.Equal(t, "home/spot/snapshot", (*sent)[0].Topic)
	var view widget.View
	require.NoError(t, json.Unmarshal((*sent)[0].Payload, &view))
	assert.Nil(t, view.Cheapest)
	assert.Nil(t, view.Countdown)
	require.NotNil(t, view.AnalyzedAt)
}
