package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is an append-only point-in-time record of a user's net worth.
type NetWorthSnapshot struct {
	ID                 uint              `json:"id" gorm:"primaryKey;column:id"`
	UserID             uint              `json:"user_id" gorm:"column:user_id;not null;index:idx_snapshot_user_time,priority:1"`
	TotalValue         decimal.Decimal   `json:"total_value" gorm:"column:total_value;type:numeric(30,10);not null"`
	TotalPurchaseValue decimal.Decimal   `json:"total_purchase_value" gorm:"column:total_purchase_value;type:numeric(30,10);not null"`
	Breakdown          SnapshotBreakdown `json:"portfolio_breakdown" gorm:"column:breakdown;type:jsonb;not null"`
	TakenAt            time.Time         `json:"timestamp" gorm:"column:taken_at;not null;index:idx_snapshot_user_time,priority:2"`
}

func (NetWorthSnapshot) TableName() string {
	return "networth_snapshots"
}

func (s *NetWorthSnapshot) Validate() error {
	if s.UserID == 0 {
		return invalid("user_id", "is required")
	}
	if s.TakenAt.IsZero() {
		return invalid("taken_at", "is required")
	}
	return nil
}

// SnapshotBreakdown maps portfolio name to its valuation details.
type SnapshotBreakdown map[string]PortfolioBreakdown

// PortfolioBreakdown is the per-portfolio part of a snapshot.
type PortfolioBreakdown struct {
	PortfolioID   uint             `json:"id"`
	Value         decimal.Decimal  `json:"value"`
	PurchaseValue decimal.Decimal  `json:"purchase_value"`
	Assets        []AssetBreakdown `json:"assets"`
}

// AssetBreakdown is the per-position part of a snapshot.
type AssetBreakdown struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	AssetClass    AssetClass          `json:"asset_type"`
	Quantity      decimal.Decimal     `json:"quantity"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	CurrentValue  decimal.NullDecimal `json:"current_value"`
	PurchaseValue decimal.Decimal     `json:"purchase_value"`
	GainLoss      decimal.NullDecimal `json:"gain_loss"`
}

func (b SnapshotBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *SnapshotBreakdown) Scan(src interface{}) error {
	return scanJSON(src, b)
}
