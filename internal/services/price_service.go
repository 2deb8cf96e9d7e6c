package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/repositories"
	"github.com/gurnoorsh/wealthwise/internal/retry"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

type PriceServiceImpl struct {
	feed   PriceFeed
	store  repositories.PriceRepository
	cache  PriceCache
	retry  retry.Config
	now    func() time.Time
	logger *zap.Logger
}

// PriceServiceOption customises a PriceServiceImpl.
type PriceServiceOption func(*PriceServiceImpl)

// WithPriceCache enables the latest-price read-through cache.
func WithPriceCache(cache PriceCache) PriceServiceOption {
	return func(s *PriceServiceImpl) { s.cache = cache }
}

// WithRetry overrides the transport retry policy.
func WithRetry(cfg retry.Config) PriceServiceOption {
	return func(s *PriceServiceImpl) { s.retry = cfg }
}

// WithClock overrides the clock used to stamp observations.
func WithClock(now func() time.Time) PriceServiceOption {
	return func(s *PriceServiceImpl) { s.now = now }
}

func NewPriceService(feed PriceFeed, store repositories.PriceRepository, log *zap.Logger, opts ...PriceServiceOption) *PriceServiceImpl {
	s := &PriceServiceImpl{
		feed:   feed,
		store:  store,
		retry:  retry.DefaultConfig(),
		now:    time.Now,
		logger: logger.OrNop(log).Named("prices"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAndStore fetches a fresh quote, retrying transport failures only, and
// appends it to the price store stamped with the current time.
func (s *PriceServiceImpl) FetchAndStore(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	symbol = models.NormalizeSymbol(symbol)

	var quote *models.PriceQuote
	res := retry.WithExponentialBackoff(ctx, s.retry, s.logger.With(zap.String("symbol", symbol)), apperrors.IsTransport,
		func(ctx context.Context, attempt int) error {
			q, err := s.feed.FetchPrice(ctx, symbol, class)
			if err != nil {
				return err
			}
			quote = q
			return nil
		})
	if !res.Success {
		return nil, res.LastError
	}

	obs := models.NewPriceObservation(quote, class, s.now())
	if err := s.store.Record(ctx, obs); err != nil {
		return nil, err
	}

	s.refreshCache(ctx, obs)

	s.logger.Info("price recorded",
		zap.String("symbol", obs.Symbol),
		zap.String("asset_class", string(class)),
		zap.String("price", obs.Price.String()),
		zap.String("source", obs.Source),
		zap.Int("attempts", res.Attempts))
	return obs, nil
}

// GetLatestPrice returns the newest observation, or nil when none was ever recorded.
func (s *PriceServiceImpl) GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	symbol = models.NormalizeSymbol(symbol)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, symbol, class)
		if err != nil {
			s.logger.Warn("price cache read failed", zap.String("symbol", symbol), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	obs, err := s.store.Latest(ctx, symbol, class)
	if err != nil || obs == nil {
		return obs, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, obs); err != nil {
			s.logger.Warn("price cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return obs, nil
}

// Uncached returns a reader that resolves the latest price from the store only.
// Snapshot valuation uses it so a run always sees the prices it just recorded.
func (s *PriceServiceImpl) Uncached() LatestPriceReader {
	return storeLatest{store: s.store}
}

type storeLatest struct {
	store repositories.PriceRepository
}

func (r storeLatest) GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	return r.store.Latest(ctx, models.NormalizeSymbol(symbol), class)
}

// refreshCache writes a just-recorded observation through to the cache. When
// the write fails the entry is dropped so readers fall back to the store.
func (s *PriceServiceImpl) refreshCache(ctx context.Context, obs *models.PriceObservation) {
	if s.cache == nil {
		return
	}
	err := s.cache.Set(ctx, obs)
	if err == nil {
		return
	}
	s.logger.Warn("failed to cache recorded price", zap.String("symbol", obs.Symbol), zap.Error(err))
	if err := s.cache.Invalidate(ctx, obs.Symbol, obs.AssetClass); err != nil {
		s.logger.Error("cached price may be stale", zap.String("symbol", obs.Symbol), zap.Error(err))
	}
}

func (s *PriceServiceImpl) GetPriceHistory(ctx context.Context, symbol string, class models.AssetClass, limit int) ([]*models.PriceObservation, error) {
	return s.store.History(ctx, models.NormalizeSymbol(symbol), class, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
