package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// Feed returns the current spot rate for one fixed fan-token/currency pair.
type Feed interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// CoinGeckoFeed fetches the fan-token spot price from the CoinGecko simple
// price endpoint and applies a fixed additive adjustment to the raw quote.
type CoinGeckoFeed struct {
	client   *http.Client
	baseURL  string
	asset    string
	currency string
	adjust   decimal.Decimal
}

func NewCoinGeckoFeed(client *http.Client, baseURL, asset, currency string, adjust decimal.Decimal) *CoinGeckoFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &CoinGeckoFeed{
		client:   client,
		baseURL:  baseURL,
		asset:    asset,
		currency: currency,
		adjust:   adjust,
	}
}

func (f *CoinGeckoFeed) Rate(ctx context.Context) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		f.baseURL, url.QueryEscape(f.asset), url.QueryEscape(f.currency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to create price feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price feed error: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("price feed returned status: %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode price feed response: %w", err)
	}

	quote, ok := payload[f.asset][f.currency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("price feed response missing %s/%s quote", f.asset, f.currency)
	}

	return quote.Add(f.adjust), nil
}
