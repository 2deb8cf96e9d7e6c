package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/gurnoorsh/wealthwise/internal/models"
)

// Totals accumulates position valuations into portfolio or user level figures.
// Positions with an unknown price add to the purchase total only.
type Totals struct {
	currentValue  decimal.Decimal
	purchaseValue decimal.Decimal
	assets        int
	priced        int
}

func (t *Totals) AddPosition(pv models.PositionValuation) {
	t.assets++
	t.purchaseValue = t.purchaseValue.Add(pv.PurchaseValue)
	if pv.CurrentValue.Valid {
		t.priced++
		t.currentValue = t.currentValue.Add(pv.CurrentValue.Decimal)
	}
}

// AddTotals folds an already summarised group, such as a portfolio, into t.
func (t *Totals) AddTotals(other models.ValuationTotals) {
	t.assets += other.AssetCount
	t.priced += other.PricedAssetCount
	t.currentValue = t.currentValue.Add(other.TotalCurrentValue)
	t.purchaseValue = t.purchaseValue.Add(other.TotalPurchaseValue)
}

func (t *Totals) Summary() models.ValuationTotals {
	gainLoss := t.currentValue.Sub(t.purchaseValue)
	return models.ValuationTotals{
		TotalCurrentValue:  t.currentValue,
		TotalPurchaseValue: t.purchaseValue,
		GainLoss:           gainLoss,
		GainLossPercent:    GainLossPercent(gainLoss, t.purchaseValue),
		AssetCount:         t.assets,
		PricedAssetCount:   t.priced,
	}
}
