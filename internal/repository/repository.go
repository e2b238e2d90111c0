package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"blog-backend/internal/model"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.OTP{}, &model.Post{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
