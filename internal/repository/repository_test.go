package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"blog-backend/internal/model"
	"blog-backend/internal/platform/sqlite"
	"blog-backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *repository.UserRepository, email, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     username,
		FullName:     username,
		PasswordHash: "digest",
		IsActive:     true,
	}
	require.NoError(t, repo.CreateWithOTP(context.Background(), user, newOTP(email, "123456")))
	return user
}

// countPosts counts post rows including soft-deleted ones.
func countPosts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var total int64
	require.NoError(t, db.Model(&model.Post{}).Count(&total).Error)
	return total
}

func otpsFor(t *testing.T, db *gorm.DB, email string) []model.OTP {
	t.Helper()
	var otps []model.OTP
	require.NoError(t, db.Where("email = ?", email).Order("id ASC").Find(&otps).Error)
	return otps
}
