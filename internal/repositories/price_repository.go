package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gurnoorsh/wealthwise/internal/db"
	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

type priceRepository struct {
	db *db.DB
}

// NewPriceRepository creates a gorm backed price store
func NewPriceRepository(database *db.DB) PriceRepository {
	return &priceRepository{db: database}
}

func (r *priceRepository) Record(ctx context.Context, obs *models.PriceObservation) error {
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	// Always a fresh row: observations are never updated.
	obs.ID = 0
	if err := r.db.WithContext(ctx).Create(obs).Error; err != nil {
		return apperrors.NewStorageError("insert price observation", err)
	}
	return nil
}

func (r *priceRepository) Latest(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error) {
	var obs models.PriceObservation
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND asset_class = ?", symbol, class).
		Order("observed_at DESC").
		Order("id DESC").
		Take(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("latest price observation", err)
	}
	return &obs, nil
}

func (r *priceRepository) History(ctx context.Context, symbol string, class models.AssetClass, limit int) ([]*models.PriceObservation, error) {
	var out []*models.PriceObservation
	query := r.db.WithContext(ctx).
		Where("symbol = ? AND asset_class = ?", symbol, class).
		Order("observed_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, apperrors.NewStorageError("list price observations", err)
	}
	return out, nil
}
