package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"blog-backend/internal/model"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Replace marks every unused OTP of otp.Email as used and inserts otp, in one
// transaction.
func (r *OTPRepository) Replace(ctx context.Context, otp *model.OTP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceOTP(tx, otp)
	})
}

func replaceOTP(tx *gorm.DB, otp *model.OTP) error {
	if err := tx.Model(&model.OTP{}).
		Where("email = ? AND is_used = ?", otp.Email, false).
		Update("is_used", true).Error; err != nil {
		return fmt.Errorf("invalidate previous otps failed: %w", err)
	}
	if err := tx.Create(otp).Error; err != nil {
		return fmt.Errorf("create otp failed: %w", err)
	}
	return nil
}

// FindUnused returns the newest unused OTP matching email and code, or nil.
func (r *OTPRepository) FindUnused(ctx context.Context, email, code string) (*model.OTP, error) {
	var otp model.OTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND otp_code = ? AND is_used = ?", email, code, false).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query otp failed: %w", err)
	}
	return &otp, nil
}

// MarkUsed flips is_used from false to true. It reports false when another caller
// already consumed the row.
func (r *OTPRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.OTP{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark otp used failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
