package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"blog-backend/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithOTP inserts user together with its first verification code. Neither
// row is kept if the other fails.
func (r *UserRepository) CreateWithOTP(ctx context.Context, user *model.User, otp *model.OTP) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user failed: %w", translate(err))
		}
		return replaceOTP(tx, otp)
	})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// MarkVerified flips verified to true and returns the refreshed user, or nil when
// no user has that email.
func (r *UserRepository) MarkVerified(ctx context.Context, email string) (*model.User, error) {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Update("verified", true).Error; err != nil {
		return nil, fmt.Errorf("mark user verified failed: %w", err)
	}
	return r.GetByEmail(ctx, email)
}

func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("set user active failed: %w", err)
	}
	return nil
}

// Delete hard-deletes the user; the posts foreign key cascades.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.User{}, id).Error; err != nil {
		return fmt.Errorf("delete user failed: %w", err)
	}
	return nil
}
