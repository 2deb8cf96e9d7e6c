package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

const (
	defaultFeedTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

// PriceFeedAdapter routes stock symbols to the equity provider and crypto symbols
// to the crypto provider. It never retries; that is the caller's decision.
type PriceFeedAdapter struct {
	equity PriceProvider
	crypto PriceProvider
	logger *zap.Logger
}

func NewPriceFeedAdapter(equity, crypto PriceProvider, log *zap.Logger) *PriceFeedAdapter {
	return &PriceFeedAdapter{equity: equity, crypto: crypto, logger: logger.OrNop(log).Named("price_feed")}
}

func (a *PriceFeedAdapter) FetchPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceQuote, error) {
	symbol = models.NormalizeSymbol(symbol)

	var provider PriceProvider
	switch class {
	case models.AssetClassStock:
		provider = a.equity
	case models.AssetClassCrypto:
		provider = a.crypto
	}
	if provider == nil {
		return nil, apperrors.NewNoDataError("feed", symbol, fmt.Errorf("no feed for asset class %q", class))
	}

	quote, err := provider.FetchQuote(ctx, symbol)
	if err != nil {
		a.logger.Debug("price fetch failed",
			zap.String("source", provider.Source()),
			zap.String("symbol", symbol),
			zap.Error(err))
		return nil, err
	}
	return quote, nil
}

// getBody performs a GET and returns the body of a 2xx response.
// Network failures and other statuses come back as transport errors.
func getBody(ctx context.Context, client *http.Client, source, symbol, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewTransportError(source, symbol, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(source, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(source, symbol, fmt.Errorf("%s status %d", source, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransportError(source, symbol, err)
	}
	return body, nil
}

func newFeedClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return &http.Client{Timeout: timeout}
}
