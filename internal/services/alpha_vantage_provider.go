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
	SourceAlphaVantage         = "alpha_vantage"
	defaultAlphaVantageBaseURL = "https://www.alphavantage.co/query"
)

// AlphaVantageProvider serves equity quotes from the GLOBAL_QUOTE endpoint.
type AlphaVantageProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAlphaVantageProvider(baseURL, apiKey string, timeout time.Duration) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = defaultAlphaVantageBaseURL
	}
	return &AlphaVantageProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newFeedClient(timeout),
	}
}

func (p *AlphaVantageProvider) Source() string { return SourceAlphaVantage }

func (p *AlphaVantageProvider) FetchQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	symbol = models.NormalizeSymbol(symbol)
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", p.apiKey)

	body, err := getBody(ctx, p.httpClient, SourceAlphaVantage, symbol, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	// Rate limited and unknown-symbol responses are 200s without a usable "Global Quote".
	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewNoDataError(SourceAlphaVantage, symbol, fmt.Errorf("decode response: %w", err))
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, apperrors.NewNoDataError(SourceAlphaVantage, symbol, errors.New("response has no Global Quote"))
	}

	raw, ok := payload.GlobalQuote["05. price"]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewNoDataError(SourceAlphaVantage, symbol, errors.New("quote has no price"))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperrors.NewNoDataError(SourceAlphaVantage, symbol, fmt.Errorf("parse price %q: %w", raw, err))
	}
	if price.IsNegative() {
		return nil, apperrors.NewNoDataError(SourceAlphaVantage, symbol, fmt.Errorf("negative price %s", price))
	}

	metadata := models.JSONMap{}
	for key, field := range map[string]string{
		"change":         "09. change",
		"change_percent": "10. change percent",
		"volume":         "06. volume",
	} {
		if v, ok := payload.GlobalQuote[field]; ok && v != "" {
			metadata[key] = v
		}
	}

	return &models.PriceQuote{
		Symbol:   symbol,
		Price:    price,
		Currency: "USD",
		Source:   SourceAlphaVantage,
		Metadata: metadata,
	}, nil
}
