package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/model"
	"blog-backend/internal/repository"
)

func newOTP(email, code string) *model.OTP {
	return &model.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(10 * time.Minute).UTC(),
	}
}

func TestOTPRepository_ReplaceInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewOTPRepository(db)

	require.NoError(t, repo.Replace(ctx, newOTP("a@x.com", "111111")))
	require.NoError(t, repo.Replace(ctx, newOTP("b@x.com", "333333")))
	require.NoError(t, repo.Replace(ctx, newOTP("a@x.com", "222222")))

	otps := otpsFor(t, db, "a@x.com")
	require.Len(t, otps, 2)
	assert.True(t, otps[0].IsUsed)
	assert.False(t, otps[1].IsUsed)

	old, err := repo.FindUnused(ctx, "a@x.com", "111111")
	require.NoError(t, err)
	assert.Nil(t, old)

	current, err := repo.FindUnused(ctx, "a@x.com", "222222")
	require.NoError(t, err)
	require.NotNil(t, current)

	other, err := repo.FindUnused(ctx, "b@x.com", "333333")
	require.NoError(t, err)
	assert.NotNil(t, other, "otps of other emails are untouched")
}

func TestOTPRepository_MarkUsedOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewOTPRepository(newTestDB(t))

	otp := newOTP("a@x.com", "123456")
	require.NoError(t, repo.Replace(ctx, otp))

	ok, err := repo.MarkUsed(ctx, otp.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkUsed(ctx, otp.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindUnused(ctx, "a@x.com", "123456")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestOTPRepository_ConcurrentMarkUsed(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewOTPRepository(newTestDB(t))

	otp := newOTP("a@x.com", "654321")
	require.NoError(t, repo.Replace(ctx, otp))

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkUsed(ctx, otp.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}
