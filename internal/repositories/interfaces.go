package repositories

import (
	"context"
	"time"

	"github.com/gurnoorsh/wealthwise/internal/models"
)

// PriceRepository is the append-only price store.
type PriceRepository interface {
	Record(ctx context.Context, obs *models.PriceObservation) error
	// Latest returns nil, nil when no observation exists for the pair.
	Latest(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
	// History returns up to limit observations, newest first.
	History(ctx context.Context, symbol string, class models.AssetClass, limit int) ([]*models.PriceObservation, error)
}

// PortfolioRepository persists portfolios and their positions. Every read is scoped by owner.
type PortfolioRepository interface {
	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
	GetPortfolio(ctx context.Context, id, userID uint) (*models.Portfolio, error)
	// ListByUser returns the user's portfolios with positions preloaded.
	ListByUser(ctx context.Context, userID uint) ([]*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id, userID uint) error
	CreatePosition(ctx context.Context, p *models.Position) error
	UpdatePositionCostBasis(ctx context.Context, positionID, portfolioID uint, ciphertext string) error
	// DistinctInstruments returns every (symbol, asset class) held by any user.
	DistinctInstruments(ctx context.Context) ([]models.Instrument, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	ListIDs(ctx context.Context) ([]uint, error)
}

// SnapshotRepository is the append-only net-worth history.
type SnapshotRepository interface {
	Create(ctx context.Context, s *models.NetWorthSnapshot) error
	// ListRecent returns the newest limit snapshots in chronological order.
	ListRecent(ctx context.Context, userID uint, limit int) ([]*models.NetWorthSnapshot, error)
	Latest(ctx context.Context, userID uint) (*models.NetWorthSnapshot, error)
	ExistsBetween(ctx context.Context, userID uint, from, to time.Time) (bool, error)
}
