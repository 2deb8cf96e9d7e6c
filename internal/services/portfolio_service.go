package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/encryption"
	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/repositories"
	"github.com/gurnoorsh/wealthwise/internal/valuation"
)

// LatestPriceReader resolves the newest known price of an instrument.
type LatestPriceReader interface {
	GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
}

// CostBasisCipher encrypts cost basis on write and decrypts it for valuation.
type CostBasisCipher interface {
	encryption.Encrypter
	encryption.Decrypter
}

type PortfolioServiceImpl struct {
	portfolios repositories.PortfolioRepository
	prices     LatestPriceReader
	cipher     CostBasisCipher
	calculator *valuation.Calculator
	now        func() time.Time
	logger     *zap.Logger
}

func NewPortfolioService(portfolios repositories.PortfolioRepository, prices LatestPriceReader, cipher CostBasisCipher, log *zap.Logger) *PortfolioServiceImpl {
	log = logger.OrNop(log)
	return &PortfolioServiceImpl{
		portfolios: portfolios,
		prices:     prices,
		cipher:     cipher,
		calculator: valuation.NewCalculator(cipher, log),
		now:        time.Now,
		logger:     log.Named("portfolios"),
	}
}

// priceLookup memoises latest prices for the duration of one valuation so a
// symbol held in several portfolios is valued against the same observation.
type priceLookup struct {
	reader LatestPriceReader
	seen   map[models.Instrument]*models.PriceObservation
}

func (l *priceLookup) latest(ctx context.Context, inst models.Instrument) (*models.PriceObservation, error) {
	if obs, ok := l.seen[inst]; ok {
		return obs, nil
	}
	obs, err := l.reader.GetLatestPrice(ctx, inst.Symbol, inst.AssetClass)
	if err != nil {
		return nil, fmt.Errorf("latest price for %s: %w", inst, err)
	}
	l.seen[inst] = obs
	return obs, nil
}

func (s *PortfolioServiceImpl) newLookup() *priceLookup {
	return &priceLookup{reader: s.prices, seen: make(map[models.Instrument]*models.PriceObservation)}
}

// ValuateUser values every portfolio the user owns. Positions without a price
// count towards the purchase total only.
func (s *PortfolioServiceImpl) ValuateUser(ctx context.Context, userID uint) (*models.UserValuation, error) {
	portfolios, err := s.GetUserPortfoliosWithValuations(ctx, userID)
	if err != nil {
		return nil, err
	}

	var totals valuation.Totals
	for _, pv := range portfolios {
		totals.AddTotals(pv.ValuationTotals)
	}
	return &models.UserValuation{
		UserID:          userID,
		Portfolios:      portfolios,
		ValuedAt:        s.now().UTC(),
		ValuationTotals: totals.Summary(),
	}, nil
}

func (s *PortfolioServiceImpl) GetUserPortfoliosWithValuations(ctx context.Context, userID uint) ([]models.PortfolioValuation, error) {
	portfolios, err := s.portfolios.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lookup := s.newLookup()
	out := make([]models.PortfolioValuation, 0, len(portfolios))
	for _, p := range portfolios {
		pv, err := s.valuePortfolio(ctx, lookup, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *pv)
	}
	return out, nil
}

func (s *PortfolioServiceImpl) GetPortfolioValuation(ctx context.Context, userID, portfolioID uint) (*models.PortfolioValuation, error) {
	p, err := s.portfolios.GetPortfolio(ctx, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	return s.valuePortfolio(ctx, s.newLookup(), p)
}

func (s *PortfolioServiceImpl) valuePortfolio(ctx context.Context, lookup *priceLookup, p *models.Portfolio) (*models.PortfolioValuation, error) {
	var totals valuation.Totals
	positions := make([]models.PositionValuation, 0, len(p.Positions))
	for i := range p.Positions {
		position := &p.Positions[i]
		obs, err := lookup.latest(ctx, position.Instrument())
		if err != nil {
			return nil, err
		}
		pv := s.calculator.Value(position, obs)
		totals.AddPosition(pv)
		positions = append(positions, pv)
	}
	return &models.PortfolioValuation{
		PortfolioID:     p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Positions:       positions,
		ValuationTotals: totals.Summary(),
	}, nil
}

func (s *PortfolioServiceImpl) CreatePortfolio(ctx context.Context, userID uint, name string, description *string) (*models.Portfolio, error) {
	p := &models.Portfolio{UserID: userID, Name: strings.TrimSpace(name), Description: description}
	if err := s.portfolios.CreatePortfolio(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("portfolio created", zap.Uint("user_id", userID), zap.Uint("portfolio_id", p.ID))
	return p, nil
}

// AddPosition stores a new position after encrypting its cost basis.
func (s *PortfolioServiceImpl) AddPosition(ctx context.Context, userID, portfolioID uint, input models.PositionInput) (*models.Position, error) {
	if _, err := s.portfolios.GetPortfolio(ctx, portfolioID, userID); err != nil {
		return nil, err
	}
	if input.Quantity.IsNegative() {
		return nil, &apperrors.ErrValidation{Field: "quantity", Message: "cannot be negative"}
	}

	ciphertext, err := s.cipher.Encrypt(input.CostBasis)
	if err != nil {
		return nil, err
	}

	acquiredAt := input.AcquiredAt
	if acquiredAt.IsZero() {
		acquiredAt = s.now()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = models.NormalizeSymbol(input.Symbol)
	}

	position := &models.Position{
		PortfolioID:        portfolioID,
		Symbol:             models.NormalizeSymbol(input.Symbol),
		Name:               name,
		AssetClass:         models.NormalizeAssetClass(input.AssetClass),
		Quantity:           input.Quantity,
		CostBasisEncrypted: ciphertext,
		AcquiredAt:         acquiredAt.UTC(),
		Metadata:           input.Metadata,
	}
	if err := s.portfolios.CreatePosition(ctx, position); err != nil {
		return nil, err
	}
	return position, nil
}

// UpdatePositionCostBasis re-encrypts and stores a corrected cost basis.
func (s *PortfolioServiceImpl) UpdatePositionCostBasis(ctx context.Context, userID, portfolioID, positionID uint, costBasis decimal.Decimal) error {
	if _, err := s.portfolios.GetPortfolio(ctx, portfolioID, userID); err != nil {
		return err
	}
	ciphertext, err := s.cipher.Encrypt(costBasis)
	if err != nil {
		return err
	}
	return s.portfolios.UpdatePositionCostBasis(ctx, positionID, portfolioID, ciphertext)
}

func (s *PortfolioServiceImpl) DeletePortfolio(ctx context.Context, userID, portfolioID uint) error {
	if err := s.portfolios.DeletePortfolio(ctx, portfolioID, userID); err != nil {
		return err
	}
	s.logger.Info("portfolio deleted", zap.Uint("user_id", userID), zap.Uint("portfolio_id", portfolioID))
	return nil
}
