package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gurnoorsh/wealthwise/internal/db"
	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

type snapshotRepository struct {
	db *db.DB
}

// NewSnapshotRepository creates the net-worth snapshot store
func NewSnapshotRepository(database *db.DB) SnapshotRepository {
	return &snapshotRepository{db: database}
}

func (r *snapshotRepository) Create(ctx context.Context, s *models.NetWorthSnapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	s.ID = 0
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return apperrors.NewStorageError("insert networth snapshot", err)
	}
	return nil
}

func (r *snapshotRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]*models.NetWorthSnapshot, error) {
	var newestFirst []*models.NetWorthSnapshot
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("taken_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&newestFirst).Error; err != nil {
		return nil, apperrors.NewStorageError("list networth snapshots", err)
	}

	out := make([]*models.NetWorthSnapshot, len(newestFirst))
	for i, s := range newestFirst {
		out[len(newestFirst)-1-i] = s
	}
	return out, nil
}

func (r *snapshotRepository) Latest(ctx context.Context, userID uint) (*models.NetWorthSnapshot, error) {
	var s models.NetWorthSnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("taken_at DESC").
		Order("id DESC").
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("latest networth snapshot", err)
	}
	return &s, nil
}

// ExistsBetween reports whether the user has a snapshot taken in [from, to).
func (r *snapshotRepository) ExistsBetween(ctx context.Context, userID uint, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NetWorthSnapshot{}).
		Where("user_id = ? AND taken_at >= ? AND taken_at < ?", userID, from.UTC(), to.UTC()).
		Count(&count).Error
	if err != nil {
		return false, apperrors.NewStorageError("count networth snapshots", err)
	}
	return count > 0, nil
}
