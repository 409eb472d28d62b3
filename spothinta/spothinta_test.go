package spothinta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/icodeforyou/spothub-go/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `[
	{"Rank": 3, "DateTime": "2025-10-19T20:15:00+03:00", "PriceNoTax": 0.0161, "PriceWithTax": 0.0202},
	{"Rank": 1, "DateTime": "2025-10-19T20:00:00+03:00", "PriceNoTax": -0.001, "PriceWithTax": -0.001},
	{"Rank": 2, "DateTime": "not a date", "PriceNoTax": 0.01, "PriceWithTax": 0.0126}
]`

func TestGetSpotPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	prices, err := New(srv.URL).GetSpotPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.True(t, prices[0].Start.Equal(time.Date(2025, time.October, 19, 17, 15, 0, 0, time.UTC)))
	assert.True(t, prices[0].PriceEurPerKwh.Equal(decimal.RequireFromString("0.0202")))
	assert.True(t, prices[1].PriceEurPerKwh.Equal(decimal.RequireFromString("-0.001")))
}

func TestGetSpotPricesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetSpotPrices(context.Background())
	require.Error(t, err)

	var statusErr *types.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestGetSpotPricesDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetSpotPrices(context.Background())
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestDefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, New("").url)
	assert.Equal(t, "spot-hinta.fi", New("").Name())
}
