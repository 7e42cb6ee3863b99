package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "igudar/internal/errors"
)

// dbError classifies a database error. Record-not-found becomes notFound when
// one is given; everything else goes through apperrors.Normalize.
func dbError(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Normalize(err)
}
