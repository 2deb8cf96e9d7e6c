package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationResult is the outcome of valuing one position against an optional price.
// An invalid NullDecimal means "unknown", which is distinct from zero.
type ValuationResult struct {
	CurrentPrice    decimal.NullDecimal `json:"current_price"`
	CurrentValue    decimal.NullDecimal `json:"current_value"`
	PurchaseValue   decimal.Decimal     `json:"purchase_value"`
	GainLoss        decimal.NullDecimal `json:"gain_loss"`
	GainLossPercent decimal.NullDecimal `json:"gain_loss_percent"`
}

// PriceKnown reports whether a price observation was available.
func (v ValuationResult) PriceKnown() bool {
	return v.CurrentValue.Valid
}

// PositionValuation composes a stored position with its decrypted cost basis and valuation.
// The position itself is never mutated.
type PositionValuation struct {
	PositionID         uint            `json:"id"`
	PortfolioID        uint            `json:"portfolio_id"`
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	AssetClass         AssetClass      `json:"asset_class"`
	Quantity           decimal.Decimal `json:"quantity"`
	CostBasis          decimal.Decimal `json:"cost_basis"`
	CostBasisAvailable bool            `json:"cost_basis_available"`
	AcquiredAt         time.Time       `json:"acquired_at"`
	Metadata           JSONMap         `json:"metadata,omitempty"`
	PriceAvailable     bool            `json:"price_available"`
	PriceObservedAt    *time.Time      `json:"price_observed_at,omitempty"`
	PriceSource        string          `json:"price_source,omitempty"`
	ValuationResult
}

// ValuationTotals rolls up position valuations.
type ValuationTotals struct {
	TotalCurrentValue  decimal.Decimal     `json:"total_current_value"`
	TotalPurchaseValue decimal.Decimal     `json:"total_purchase_value"`
	GainLoss           decimal.Decimal     `json:"gain_loss"`
	GainLossPercent    decimal.NullDecimal `json:"gain_loss_percent"`
	AssetCount         int                 `json:"asset_count"`
	PricedAssetCount   int                 `json:"priced_asset_count"`
}

// PortfolioValuation is one portfolio with its valued positions and subtotals.
type PortfolioValuation struct {
	PortfolioID uint                `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description,omitempty"`
	Positions   []PositionValuation `json:"positions"`
	ValuationTotals
}

// UserValuation is a user's net worth across all portfolios at ValuedAt.
type UserValuation struct {
	UserID     uint                 `json:"user_id"`
	Portfolios []PortfolioValuation `json:"portfolios"`
	ValuedAt   time.Time            `json:"valued_at"`
	ValuationTotals
}
