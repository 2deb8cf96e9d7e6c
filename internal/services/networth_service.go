package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
	"github.com/gurnoorsh/wealthwise/internal/repositories"
)

// UserValuator values all of a user's holdings.
type UserValuator interface {
	ValuateUser(ctx context.Context, userID uint) (*models.UserValuation, error)
}

// CurrentNetWorth is an on-demand valuation plus the time of the last stored snapshot.
type CurrentNetWorth struct {
	models.UserValuation
	LastUpdated *time.Time `json:"last_updated"`
}

type NetWorthServiceImpl struct {
	valuator    UserValuator
	snapshots   repositories.SnapshotRepository
	dedupeDaily bool
	location    *time.Location
	now         func() time.Time
	logger      *zap.Logger
}

// NewNetWorthService builds the snapshot service. Daily dedupe windows are
// calendar days in loc, which should match the scheduler's location; nil means UTC.
func NewNetWorthService(valuator UserValuator, snapshots repositories.SnapshotRepository, dedupeDaily bool, loc *time.Location, log *zap.Logger) *NetWorthServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &NetWorthServiceImpl{
		valuator:    valuator,
		snapshots:   snapshots,
		dedupeDaily: dedupeDaily,
		location:    loc,
		now:         time.Now,
		logger:      logger.OrNop(log).Named("networth"),
	}
}

// CaptureSnapshot values the user and appends a snapshot. With daily dedupe on,
// a user that already has a snapshot for the current local day is skipped and
// created is false.
func (s *NetWorthServiceImpl) CaptureSnapshot(ctx context.Context, userID uint) (*models.NetWorthSnapshot, bool, error) {
	now := s.now().UTC()

	if s.dedupeDaily {
		dayStart, dayEnd := dayWindow(now, s.location)
		exists, err := s.snapshots.ExistsBetween(ctx, userID, dayStart, dayEnd)
		if err != nil {
			return nil, false, err
		}
		if exists {
			s.logger.Debug("snapshot already taken today", zap.Uint("user_id", userID))
			return nil, false, nil
		}
	}

	uv, err := s.valuator.ValuateUser(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("valuate user %d: %w", userID, err)
	}

	snapshot := &models.NetWorthSnapshot{
		UserID:             userID,
		TotalValue:         uv.TotalCurrentValue,
		TotalPurchaseValue: uv.TotalPurchaseValue,
		Breakdown:          buildBreakdown(uv.Portfolios),
		TakenAt:            now,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, false, err
	}

	s.logger.Info("networth snapshot created",
		zap.Uint("user_id", userID),
		zap.String("total_value", snapshot.TotalValue.String()),
		zap.Int("portfolios", len(uv.Portfolios)))
	return snapshot, true, nil
}

// buildBreakdown keys portfolios by name; a repeated name gets its id appended.
func buildBreakdown(portfolios []models.PortfolioValuation) models.SnapshotBreakdown {
	breakdown := make(models.SnapshotBreakdown, len(portfolios))
	for _, p := range portfolios {
		assets := make([]models.AssetBreakdown, 0, len(p.Positions))
		for _, pos := range p.Positions {
			assets = append(assets, models.AssetBreakdown{
				Symbol:        pos.Symbol,
				Name:          pos.Name,
				AssetClass:    pos.AssetClass,
				Quantity:      pos.Quantity,
				CurrentPrice:  pos.CurrentPrice,
				CurrentValue:  pos.CurrentValue,
				PurchaseValue: pos.PurchaseValue,
				GainLoss:      pos.GainLoss,
			})
		}

		key := p.Name
		if _, taken := breakdown[key]; taken {
			key = fmt.Sprintf("%s (#%d)", p.Name, p.PortfolioID)
		}
		breakdown[key] = models.PortfolioBreakdown{
			PortfolioID:   p.PortfolioID,
			Value:         p.TotalCurrentValue,
			PurchaseValue: p.TotalPurchaseValue,
			Assets:        assets,
		}
	}
	return breakdown
}

// ListSnapshots returns up to limit of the most recent snapshots, oldest first.
func (s *NetWorthServiceImpl) ListSnapshots(ctx context.Context, userID uint, limit int) ([]*models.NetWorthSnapshot, error) {
	return s.snapshots.ListRecent(ctx, userID, clampLimit(limit))
}

func (s *NetWorthServiceImpl) CurrentNetWorth(ctx context.Context, userID uint) (*CurrentNetWorth, error) {
	uv, err := s.valuator.ValuateUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.snapshots.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := &CurrentNetWorth{UserValuation: *uv}
	if latest != nil {
		takenAt := latest.TakenAt
		current.LastUpdated = &takenAt
	}
	return current, nil
}

// dayWindow returns the UTC bounds of the calendar day containing t in loc.
// The window is 23 or 25 hours long across a DST change.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
