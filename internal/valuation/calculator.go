// Package valuation turns positions and prices into values, gains and totals.
// All arithmetic is decimal; unknown prices stay unknown and are never treated as zero.
package valuation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/encryption"
	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Compute values quantity units bought at costBasis each against an optional price.
func Compute(quantity, costBasis decimal.Decimal, price decimal.NullDecimal) models.ValuationResult {
	result := models.ValuationResult{
		PurchaseValue: quantity.Mul(costBasis),
	}
	if !price.Valid {
		return result
	}

	currentValue := quantity.Mul(price.Decimal)
	gainLoss := currentValue.Sub(result.PurchaseValue)

	result.CurrentPrice = price
	result.CurrentValue = decimal.NewNullDecimal(currentValue)
	result.GainLoss = decimal.NewNullDecimal(gainLoss)
	result.GainLossPercent = GainLossPercent(gainLoss, result.PurchaseValue)
	return result
}

// GainLossPercent is gain / purchase * 100, or unknown when purchase is not positive.
func GainLossPercent(gainLoss, purchaseValue decimal.Decimal) decimal.NullDecimal {
	if !purchaseValue.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(gainLoss.Div(purchaseValue).Mul(hundred))
}

// Calculator values stored positions, decrypting their cost basis on the way.
type Calculator struct {
	decrypter encryption.Decrypter
	logger    *zap.Logger
}

func NewCalculator(decrypter encryption.Decrypter, log *zap.Logger) *Calculator {
	return &Calculator{decrypter: decrypter, logger: logger.OrNop(log).Named("valuation")}
}

// Value values a position against the latest observation, which may be nil.
// A cost basis that fails to decrypt is logged and counted as zero.
func (c *Calculator) Value(position *models.Position, observation *models.PriceObservation) models.PositionValuation {
	costBasis, available := c.costBasis(position)

	price := decimal.NullDecimal{}
	if observation != nil {
		price = decimal.NewNullDecimal(observation.Price)
	}

	pv := models.PositionValuation{
		PositionID:         position.ID,
		PortfolioID:        position.PortfolioID,
		Symbol:             position.Symbol,
		Name:               position.Name,
		AssetClass:         position.AssetClass,
		Quantity:           position.Quantity,
		CostBasis:          costBasis,
		CostBasisAvailable: available,
		AcquiredAt:         position.AcquiredAt,
		Metadata:           position.Metadata,
		PriceAvailable:     observation != nil,
		ValuationResult:    Compute(position.Quantity, costBasis, price),
	}
	if observation != nil {
		observedAt := observation.ObservedAt
		pv.PriceObservedAt = &observedAt
		pv.PriceSource = observation.Source
	}
	return pv
}

func (c *Calculator) costBasis(position *models.Position) (decimal.Decimal, bool) {
	d, err := c.decrypter.Decrypt(position.CostBasisEncrypted)
	if err != nil {
		c.logger.Warn("cost basis could not be decrypted, using zero",
			zap.Uint("position_id", position.ID),
			zap.String("symbol", position.Symbol),
			zap.Error(err))
		return decimal.Zero, false
	}
	return d, true
}
