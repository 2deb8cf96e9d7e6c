package models

import apperrors "github.com/gurnoorsh/wealthwise/internal/errors"

func invalid(field, message string) error {
	return &apperrors.ErrValidation{Field: field, Message: message}
}
