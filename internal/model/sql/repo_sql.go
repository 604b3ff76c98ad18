package sql

import (
	"accounts/internal/entity/common"
	"accounts/internal/entity/db"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(gdb *gorm.DB) *GormRepository {
	return &GormRepository{db: gdb}
}

// AutoMigrate creates or updates the tables used by the repository.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&db.User{})
}

// calculatePagination calculates pagination metrics
func (r *GormRepository) calculatePagination(totalCount int64, page, pageSize int) *common.Meta {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	return &common.Meta{
		Total:    totalCount,
		Page:     int64(page),
		PageSize: int64(pageSize),
	}
}

// translateWriteError maps unique index violations to db.ErrDuplicateUser.
// The dialector must be opened with TranslateError enabled.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", db.ErrDuplicateUser, err)
	}
	return err
}
