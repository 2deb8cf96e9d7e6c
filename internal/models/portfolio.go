package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User owns portfolios. Credentials live with the auth layer, not here.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;column:id"`
	Email     string    `json:"email" gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	FullName  *string   `json:"full_name,omitempty" gorm:"column:full_name;type:varchar(255)"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// Portfolio groups positions for exactly one user.
type Portfolio struct {
	ID          uint       `json:"id" gorm:"primaryKey;column:id"`
	UserID      uint       `json:"user_id" gorm:"column:user_id;not null;index"`
	Name        string     `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Description *string    `json:"description,omitempty" gorm:"column:description;type:text"`
	Positions   []Position `json:"positions,omitempty" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (p *Portfolio) Validate() error {
	if p.UserID == 0 {
		return invalid("user_id", "is required")
	}
	if p.Name == "" {
		return invalid("name", "is required")
	}
	if len(p.Name) > 255 {
		return invalid("name", "must be 255 characters or less")
	}
	return nil
}

// Position is one held quantity of a symbol. The cost basis is only ever stored encrypted.
type Position struct {
	ID                 uint            `json:"id" gorm:"primaryKey;column:id"`
	PortfolioID        uint            `json:"portfolio_id" gorm:"column:portfolio_id;not null;index"`
	Symbol             string          `json:"symbol" gorm:"column:symbol;type:varchar(64);not null;index"`
	Name               string          `json:"name" gorm:"column:name;type:varchar(255);not null"`
	AssetClass         AssetClass      `json:"asset_class" gorm:"column:asset_class;type:varchar(32);not null"`
	Quantity           decimal.Decimal `json:"quantity" gorm:"column:quantity;type:numeric(30,10);not null"`
	CostBasisEncrypted string          `json:"-" gorm:"column:cost_basis_encrypted;type:text;not null"`
	AcquiredAt         time.Time       `json:"acquired_at" gorm:"column:acquired_at;not null"`
	Metadata           JSONMap         `json:"metadata,omitempty" gorm:"column:metadata;type:jsonb"`
	CreatedAt          time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Position) TableName() string {
	return "positions"
}

// Instrument returns the (symbol, asset class) key used for price lookups.
func (p *Position) Instrument() Instrument {
	return Instrument{Symbol: p.Symbol, AssetClass: p.AssetClass}
}

func (p *Position) Validate() error {
	if p.PortfolioID == 0 {
		return invalid("portfolio_id", "is required")
	}
	if p.Symbol == "" {
		return invalid("symbol", "is required")
	}
	if p.Name == "" {
		return invalid("name", "is required")
	}
	if p.AssetClass == "" {
		return invalid("asset_class", "is required")
	}
	if p.Quantity.IsNegative() {
		return invalid("quantity", "cannot be negative")
	}
	if p.CostBasisEncrypted == "" {
		return invalid("cost_basis_encrypted", "is required")
	}
	if p.AcquiredAt.IsZero() {
		return invalid("acquired_at", "is required")
	}
	return nil
}

// PositionInput carries a new position before its cost basis is encrypted.
type PositionInput struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	AssetClass string          `json:"asset_class"`
	Quantity   decimal.Decimal `json:"quantity"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	AcquiredAt time.Time       `json:"acquired_at"`
	Metadata   JSONMap         `json:"metadata,omitempty"`
}
