package repository

import (
	"errors"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"gorm.io/gorm"
)

// translate maps GORM sentinel errors onto domain errors.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	}
	return err
}
