package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a normalized upstream price before it is recorded.
type PriceQuote struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
	Metadata JSONMap         `json:"metadata,omitempty"`
}

// PriceObservation is an immutable timestamped price for a (symbol, asset class) pair.
// The latest observation is the one with the greatest ObservedAt.
type PriceObservation struct {
	ID         uint            `json:"id" gorm:"primaryKey;column:id"`
	Symbol     string          `json:"symbol" gorm:"column:symbol;type:varchar(64);not null;index:idx_price_lookup,priority:1"`
	AssetClass AssetClass      `json:"asset_class" gorm:"column:asset_class;type:varchar(32);not null;index:idx_price_lookup,priority:2"`
	Price      decimal.Decimal `json:"price" gorm:"column:price;type:numeric(30,10);not null"`
	Currency   string          `json:"currency" gorm:"column:currency;type:varchar(8);not null;default:'USD'"`
	Source     string          `json:"source" gorm:"column:source;type:varchar(64);not null"`
	ObservedAt time.Time       `json:"observed_at" gorm:"column:observed_at;not null;index:idx_price_lookup,priority:3"`
	Metadata   JSONMap         `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
}

func (PriceObservation) TableName() string {
	return "price_observations"
}

// NewPriceObservation stamps a quote for the given asset class at observedAt.
func NewPriceObservation(q *PriceQuote, class AssetClass, observedAt time.Time) *PriceObservation {
	return &PriceObservation{
		Symbol:     NormalizeSymbol(q.Symbol),
		AssetClass: class,
		Price:      q.Price,
		Currency:   q.Currency,
		Source:     q.Source,
		ObservedAt: observedAt.UTC(),
		Metadata:   q.Metadata,
	}
}

func (p *PriceObservation) Validate() error {
	if p.Symbol == "" {
		return invalid("symbol", "is required")
	}
	if p.AssetClass == "" {
		return invalid("asset_class", "is required")
	}
	if p.Currency == "" {
		return invalid("currency", "is required")
	}
	if p.Price.IsNegative() {
		return invalid("price", "cannot be negative")
	}
	if p.ObservedAt.IsZero() {
		return invalid("observed_at", "is required")
	}
	if p.Source == "" {
		return invalid("source", "is required")
	}
	return nil
}
