package porssisahko

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

const DefaultURL = "https://api.porssisahko.net/v2/latest-prices.json"

var centsPerEur = decimal.NewFromInt(100)

type rawPrice struct {
	Price     decimal.Decimal `json:"price"` // c/kWh including VAT
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
}

type rawPrices struct {
	Prices []rawPrice `json:"prices"`
}

type Porssisahko struct {
	logger *slog.Logger
	url    string
	client *http.Client
}

func New(url string) Porssisahko {
	if url == "" {
		url = DefaultURL
	}
	return Porssisahko{
		logger: slog.Default().With(slog.String("module", "porssisahko")),
		url:    url,
		client: &http.Client{},
	}
}

func (p Porssisahko) Name() string {
	return "porssisahko.net"
}

func (p Porssisahko) GetSpotPrices(ctx context.Context) ([]types.SpotPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.StatusError{StatusCode: resp.StatusCode}
	}

	var data rawPrices
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	prices := make([]types.SpotPrice, 0, len(data.Prices))
	for _, raw := range data.Prices {
		start, err := time.Parse(time.RFC3339, raw.StartDate)
		if err != nil {
			p.logger.Warn("skipping price with malformed timestamp",
				slog.String("startDate", raw.StartDate), slog.Any("error", err))
			continue
		}
		prices = append(prices, types.SpotPrice{
			Start:          start,
			PriceEurPerKwh: raw.Price.Div(centsPerEur),
		})
	}

	return prices, nil
}
