package spothinta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spothub-go/types"
	"github.com/shopspring/decimal"
)

const DefaultURL = "https://api.spot-hinta.fi/TodayAndDayForward"

type rawPrice struct {
	Rank         int             `json:"Rank"`
	DateTime     string          `json:"DateTime"`
	PriceNoTax   decimal.Decimal `json:"PriceNoTax"`
	PriceWithTax decimal.Decimal `json:"PriceWithTax"`
}

type SpotHinta struct {
	logger *slog.Logger
	url    string
	client *http.Client
}

func New(url string) SpotHinta {
	if url == "" {
		url = DefaultURL
	}
	return SpotHinta{
		logger: slog.Default().With(slog.String("module", "spothinta")),
		url:    url,
		client: &http.Client{},
	}
}

func (s SpotHinta) Name() string {
	return "spot-hinta.fi"
}

func (s SpotHinta) GetSpotPrices(ctx context.Context) ([]types.SpotPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.StatusError{StatusCode: resp.StatusCode}
	}

	var rawPrices []rawPrice
	if err := json.NewDecoder(resp.Body).Decode(&rawPrices); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	prices := make([]types.SpotPrice, 0, len(rawPrices))
	for _, raw := range rawPrices {
		start, err := time.Parse(time.RFC3339, raw.DateTime)
		if err != nil {
			s.logger.Warn("skipping price with malformed timestamp",
				slog.String("dateTime", raw.DateTime), slog.Any("error", err))
			continue
		}
		prices = append(prices, types.SpotPrice{
			Start:          start,
			PriceEurPerKwh: raw.PriceWithTax,
		})
	}

	return prices, nil
}
