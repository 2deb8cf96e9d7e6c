package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gurnoorsh/wealthwise/internal/models"
)

// PriceProvider fetches a current quote from one upstream source.
// Every error it returns is an *apperrors.FetchError.
type PriceProvider interface {
	Source() string
	FetchQuote(ctx context.Context, symbol string) (*models.PriceQuote, error)
}

// PriceFeed dispatches a fetch to the provider serving the asset class.
type PriceFeed interface {
	FetchPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceQuote, error)
}

// PriceCache holds the latest observation per instrument. A miss returns nil, nil.
type PriceCache interface {
	Get(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
	Set(ctx context.Context, obs *models.PriceObservation) error
	Invalidate(ctx context.Context, symbol string, class models.AssetClass) error
}

// PriceService records and serves price observations
type PriceService interface {
	FetchAndStore(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
	GetLatestPrice(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
	GetPriceHistory(ctx context.Context, symbol string, class models.AssetClass, limit int) ([]*models.PriceObservation, error)
}

// PortfolioService values and maintains a user's portfolios
type PortfolioService interface {
	ValuateUser(ctx context.Context, userID uint) (*models.UserValuation, error)
	GetUserPortfoliosWithValuations(ctx context.Context, userID uint) ([]models.PortfolioValuation, error)
	GetPortfolioValuation(ctx context.Context, userID, portfolioID uint) (*models.PortfolioValuation, error)
	CreatePortfolio(ctx context.Context, userID uint, name string, description *string) (*models.Portfolio, error)
	AddPosition(ctx context.Context, userID, portfolioID uint, input models.PositionInput) (*models.Position, error)
	UpdatePositionCostBasis(ctx context.Context, userID, portfolioID, positionID uint, costBasis decimal.Decimal) error
	DeletePortfolio(ctx context.Context, userID, portfolioID uint) error
}

// NetWorthService captures and reads net-worth history
type NetWorthService interface {
	CaptureSnapshot(ctx context.Context, userID uint) (*models.NetWorthSnapshot, bool, error)
	ListSnapshots(ctx context.Context, userID uint, limit int) ([]*models.NetWorthSnapshot, error)
	CurrentNetWorth(ctx context.Context, userID uint) (*CurrentNetWorth, error)
}
