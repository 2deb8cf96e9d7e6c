package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

const (
	SourceCoinGecko         = "coingecko"
	defaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	coinGeckoAPIKeyHeader   = "X-CG-Demo-API-Key"
)

// coinGeckoIDs maps common tickers to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"ADA":  "cardano",
	"DOT":  "polkadot",
	"LINK": "chainlink",
	"LTC":  "litecoin",
	"XRP":  "ripple",
	"BCH":  "bitcoin-cash",
	"BNB":  "binancecoin",
	"SOL":  "solana",
}

// coinGeckoID resolves a ticker, falling back to the lowercased symbol.
func coinGeckoID(symbol string) string {
	if id, ok := coinGeckoIDs[models.NormalizeSymbol(symbol)]; ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}

// CoinGeckoProvider serves crypto quotes from /simple/price.
type CoinGeckoProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCoinGeckoProvider(baseURL, apiKey string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = defaultCoinGeckoBaseURL
	}
	return &CoinGeckoProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newFeedClient(timeout),
	}
}

func (p *CoinGeckoProvider) Source() string { return SourceCoinGecko }

func (p *CoinGeckoProvider) FetchQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	symbol = models.NormalizeSymbol(symbol)
	id := coinGeckoID(symbol)

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	params.Set("include_24hr_vol", "true")

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{coinGeckoAPIKeyHeader: p.apiKey}
	}

	body, err := getBody(ctx, p.httpClient, SourceCoinGecko, symbol, p.baseURL+"/simple/price?"+params.Encode(), headers)
	if err != nil {
		return nil, err
	}

	// json.Number keeps the literal so prices never pass through float64.
	var payload map[string]map[string]json.Number
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewNoDataError(SourceCoinGecko, symbol, fmt.Errorf("decode response: %w", err))
	}
	coin, ok := payload[id]
	if !ok {
		return nil, apperrors.NewNoDataError(SourceCoinGecko, symbol, fmt.Errorf("no data for id %q", id))
	}
	raw, ok := coin["usd"]
	if !ok {
		return nil, apperrors.NewNoDataError(SourceCoinGecko, symbol, errors.New("no usd price"))
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return nil, apperrors.NewNoDataError(SourceCoinGecko, symbol, fmt.Errorf("parse price %q: %w", raw, err))
	}
	if price.IsNegative() {
		return nil, apperrors.NewNoDataError(SourceCoinGecko, symbol, fmt.Errorf("negative price %s", price))
	}

	metadata := models.JSONMap{"coingecko_id": id}
	if v, ok := coin["usd_24h_change"]; ok && v != "" {
		metadata["change_24h"] = v.String()
	}
	if v, ok := coin["usd_24h_vol"]; ok && v != "" {
		metadata["volume_24h"] = v.String()
	}

	return &models.PriceQuote{
		Symbol:   symbol,
		Price:    price,
		Currency: "USD",
		Source:   SourceCoinGecko,
		Metadata: metadata,
	}, nil
}
