package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

func TestAlphaVantageProvider_FetchQuote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Global Quote": map[string]string{
				"01. symbol":         "AAPL",
				"05. price":          "189.8400",
				"06. volume":         "51234567",
				"09. change":         "1.2300",
				"10. change percent": "0.6521%",
			},
		})
	}))
	defer ts.Close()

	p := NewAlphaVantageProvider(ts.URL, "demo", time.Second)
	q, err := p.FetchQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("189.84")))
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, SourceAlphaVantage, q.Source)
	assert.Equal(t, "1.2300", q.Metadata["change"])
	assert.Equal(t, "0.6521%", q.Metadata["change_percent"])
	assert.Equal(t, "51234567", q.Metadata["volume"])
}

func TestAlphaVantageProvider_Errors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		transport bool
	}{
		{"empty global quote", http.StatusOK, `{"Global Quote": {}}`, false},
		{"rate limit note", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage!"}`, false},
		{"missing price", http.StatusOK, `{"Global Quote": {"01. symbol": "AAPL"}}`, false},
		{"unparsable price", http.StatusOK, `{"Global Quote": {"05. price": "n/a"}}`, false},
		{"not json", http.StatusOK, `<html>oops</html>`, false},
		{"server error", http.StatusInternalServerError, `{}`, true},
		{"throttled", http.StatusTooManyRequests, ``, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			_, err := NewAlphaVantageProvider(ts.URL, "k", time.Second).FetchQuote(context.Background(), "MSFT")
			require.Error(t, err)
			assert.Equal(t, tc.transport, apperrors.IsTransport(err), err.Error())
			assert.Equal(t, !tc.transport, apperrors.IsNoData(err), err.Error())
		})
	}
}

func TestAlphaVantageProvider_NetworkFailureIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewAlphaVantageProvider(url, "k", time.Second).FetchQuote(context.Background(), "MSFT")
	assert.True(t, apperrors.IsTransport(err))
}

func TestCoinGeckoProvider_FetchQuote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", r.URL.Query().Get("include_24hr_change"))
		assert.Equal(t, "true", r.URL.Query().Get("include_24hr_vol"))
		assert.Equal(t, "cg-key", r.Header.Get("X-CG-Demo-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":64123.123456789012,"usd_24h_change":-1.25,"usd_24h_vol":2.5e10}}`))
	}))
	defer ts.Close()

	p := NewCoinGeckoProvider(ts.URL, "cg-key", time.Second)
	q, err := p.FetchQuote(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", q.Symbol)
	assert.Equal(t, "64123.123456789012", q.Price.String())
	assert.Equal(t, SourceCoinGecko, q.Source)
	assert.Equal(t, "bitcoin", q.Metadata["coingecko_id"])
	assert.Equal(t, "-1.25", q.Metadata["change_24h"])
	assert.Equal(t, "2.5e10", q.Metadata["volume_24h"])
}

func TestCoinGeckoProvider_UnseededSymbolFallsBackToLowercase(t *testing.T) {
	var gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("ids")
		assert.Empty(t, r.Header.Get("X-CG-Demo-API-Key"))
		w.Write([]byte(`{"dogecoin":{"usd":0.00001234}}`))
	}))
	defer ts.Close()

	q, err := NewCoinGeckoProvider(ts.URL, "", time.Second).FetchQuote(context.Background(), "DOGECOIN")
	require.NoError(t, err)
	assert.Equal(t, "dogecoin", gotID)
	assert.Equal(t, "0.00001234", q.Price.String())
}

func TestCoinGeckoIDs(t *testing.T) {
	expected := map[string]string{
		"BTC": "bitcoin", "ETH": "ethereum", "ADA": "cardano", "DOT": "polkadot", "LINK": "chainlink",
		"LTC": "litecoin", "XRP": "ripple", "BCH": "bitcoin-cash", "BNB": "binancecoin", "SOL": "solana",
	}
	for symbol, id := range expected {
		assert.Equal(t, id, coinGeckoID(symbol))
		assert.Equal(t, id, coinGeckoID(" "+symbol+" "))
	}
	assert.Equal(t, "avax", coinGeckoID("AVAX"))
}

func TestCoinGeckoProvider_Errors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		transport bool
	}{
		{"unknown id", http.StatusOK, `{}`, false},
		{"no usd", http.StatusOK, `{"ethereum":{"eur":1}}`, false},
		{"null usd", http.StatusOK, `{"ethereum":{"usd":null}}`, false},
		{"not json", http.StatusOK, `nope`, false},
		{"rate limited", http.StatusTooManyRequests, `{"status":{"error_code":429}}`, true},
		{"bad gateway", http.StatusBadGateway, ``, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			_, err := NewCoinGeckoProvider(ts.URL, "", time.Second).FetchQuote(context.Background(), "ETH")
			require.Error(t, err)
			assert.Equal(t, tc.transport, apperrors.IsTransport(err), err.Error())
			assert.Equal(t, !tc.transport, apperrors.IsNoData(err), err.Error())
		})
	}
}

func TestCoinGeckoProvider_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewCoinGeckoProvider(ts.URL, "", 50*time.Millisecond).FetchQuote(context.Background(), "BTC")
	assert.True(t, apperrors.IsTransport(err))
}

func TestPriceFeedAdapter_Dispatch(t *testing.T) {
	equity := &staticProvider{source: SourceAlphaVantage, quote: quote("AAPL", "100", SourceAlphaVantage)}
	crypto := &staticProvider{source: SourceCoinGecko, quote: quote("BTC", "60000", SourceCoinGecko)}
	feed := NewPriceFeedAdapter(equity, crypto, nil)
	ctx := context.Background()

	q, err := feed.FetchPrice(ctx, "aapl", models.AssetClassStock)
	require.NoError(t, err)
	assert.Equal(t, SourceAlphaVantage, q.Source)
	assert.Equal(t, []string{"AAPL"}, equity.seen)

	q, err = feed.FetchPrice(ctx, "btc", models.AssetClassCrypto)
	require.NoError(t, err)
	assert.Equal(t, SourceCoinGecko, q.Source)
	assert.Equal(t, []string{"BTC"}, crypto.seen)

	for _, class := range []models.AssetClass{models.AssetClassBond, models.AssetClassCash, "commodity"} {
		_, err = feed.FetchPrice(ctx, "X", class)
		assert.True(t, apperrors.IsNoData(err), class)
	}
	assert.Len(t, equity.seen, 1)
	assert.Len(t, crypto.seen, 1)
}

func TestPriceFeedAdapter_PassesProviderErrorsThrough(t *testing.T) {
	failing := &staticProvider{source: SourceCoinGecko, err: apperrors.NewTransportError(SourceCoinGecko, "ETH", assert.AnError)}
	feed := NewPriceFeedAdapter(nil, failing, nil)

	_, err := feed.FetchPrice(context.Background(), "ETH", models.AssetClassCrypto)
	assert.True(t, apperrors.IsTransport(err))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = feed.FetchPrice(context.Background(), "AAPL", models.AssetClassStock)
	assert.True(t, apperrors.IsNoData(err))
}
