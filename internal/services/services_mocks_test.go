package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gurnoorsh/wealthwise/internal/db"
	"github.com/gurnoorsh/wealthwise/internal/encryption"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/repositories"
)

// ---- Fakes for collaborators used in unit tests ----

type scriptedFeed struct {
	mu     sync.Mutex
	errs   []error
	quotes map[string]*models.PriceQuote
	calls  int
}

func (f *scriptedFeed) FetchPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	q := *f.quotes[symbol]
	return &q, nil
}

type staticProvider struct {
	source string
	quote  *models.PriceQuote
	err    error
	seen   []string
}

func (p *staticProvider) Source() string { return p.source }

func (p *staticProvider) FetchQuote(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	p.seen = append(p.seen, symbol)
	return p.quote, p.err
}

type mapPriceReader struct {
	prices map[models.Instrument]*models.PriceObservation
	err    error
	calls  int
}

func (m *mapPriceReader) GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.prices[models.Instrument{Symbol: symbol, AssetClass: class}], nil
}

// pausingStore blocks after its first Latest read until release is closed.
type pausingStore struct {
	repositories.PriceRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) Latest(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	obs, err := p.PriceRepository.Latest(ctx, symbol, class)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return obs, err
}

type failingSetCache struct {
	invalidated []string
}

func (c *failingSetCache) Get(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	return nil, nil
}

func (c *failingSetCache) Set(ctx context.Context, obs *models.PriceObservation) error {
	return errors.New("read-only replica")
}

func (c *failingSetCache) Invalidate(ctx context.Context, symbol string, class models.AssetClass) error {
	c.invalidated = append(c.invalidated, string(class)+":"+symbol)
	return nil
}

func priceAt(symbol string, class models.AssetClass, price string) *models.PriceObservation {
	return &models.PriceObservation{
		Symbol:     symbol,
		AssetClass: class,
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		Source:     "test",
		ObservedAt: time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC),
	}
}

func quote(symbol, price, source string) *models.PriceQuote {
	return &models.PriceQuote{Symbol: symbol, Price: decimal.RequireFromString(price), Currency: "USD", Source: source}
}

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.ConnectSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestCipher(t *testing.T) *encryption.Cipher {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	c, err := encryption.NewCipherFromBase64(key)
	require.NoError(t, err)
	return c
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
