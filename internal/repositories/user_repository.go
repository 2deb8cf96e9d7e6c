package repositories

import (
	"context"
	"fmt"

	"github.com/gurnoorsh/wealthwise/internal/db"
	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

type userRepository struct {
	db *db.DB
}

func NewUserRepository(database *db.DB) UserRepository {
	return &userRepository{db: database}
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	if u.Email == "" {
		return fmt.Errorf("validation failed: %w", &apperrors.ErrValidation{Field: "email", Message: "is required"})
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return apperrors.NewStorageError("create user", err)
	}
	return nil
}

// ListIDs returns the id of every user in ascending order. The active flag
// belongs to the auth layer and does not exclude anyone from snapshots.
func (r *userRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.NewStorageError("list users", err)
	}
	return ids, nil
}
