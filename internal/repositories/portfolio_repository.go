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

type portfolioRepository struct {
	db *db.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(database *db.DB) PortfolioRepository {
	return &portfolioRepository{db: database}
}

func (r *portfolioRepository) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Omit("Positions").Create(p).Error; err != nil {
		return apperrors.NewStorageError("create portfolio", err)
	}
	return nil
}

func (r *portfolioRepository) GetPortfolio(ctx context.Context, id, userID uint) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.WithContext(ctx).
		Preload("Positions", orderByID).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("portfolio %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get portfolio", err)
	}
	return &p, nil
}

func (r *portfolioRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Portfolio, error) {
	var out []*models.Portfolio
	err := r.db.WithContext(ctx).
		Preload("Positions", orderByID).
		Where("user_id = ?", userID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.NewStorageError("list portfolios", err)
	}
	return out, nil
}

// DeletePortfolio removes the portfolio and its positions in one transaction.
func (r *portfolioRepository) DeletePortfolio(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Portfolio{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("portfolio %d: %w", id, apperrors.ErrNotFound)
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&models.Position{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Portfolio{}).Error
	})
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return apperrors.NewStorageError("delete portfolio", err)
}

func (r *portfolioRepository) CreatePosition(ctx context.Context, p *models.Position) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperrors.NewStorageError("create position", err)
	}
	return nil
}

func (r *portfolioRepository) UpdatePositionCostBasis(ctx context.Context, positionID, portfolioID uint, ciphertext string) error {
	if ciphertext == "" {
		return &apperrors.ErrValidation{Field: "cost_basis_encrypted", Message: "is required"}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("id = ? AND portfolio_id = ?", positionID, portfolioID).
		Update("cost_basis_encrypted", ciphertext)
	if res.Error != nil {
		return apperrors.NewStorageError("update cost basis", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("position %d: %w", positionID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *portfolioRepository) DistinctInstruments(ctx context.Context) ([]models.Instrument, error) {
	var out []models.Instrument
	err := r.db.WithContext(ctx).
		Model(&models.Position{}).
		Distinct("symbol", "asset_class").
		Order("symbol").
		Order("asset_class").
		Scan(&out).Error
	if err != nil {
		return nil, apperrors.NewStorageError("list instruments", err)
	}
	return out, nil
}

func orderByID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}
