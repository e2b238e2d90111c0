package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"blog-backend/internal/model"
	"blog-backend/internal/repository"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// OTPService issues and consumes email verification codes. At most one code per
// email is usable at a time.
type OTPService struct {
	repo *repository.OTPRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewOTPService(repo *repository.OTPRepository, ttl time.Duration, now func() time.Time) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &OTPService{repo: repo, ttl: ttl, now: now}
}

func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// Issue stores a fresh code for email and supersedes every earlier one.
func (s *OTPService) Issue(ctx context.Context, email string) (*model.OTP, string, error) {
	otp, err := s.draft(email)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.Replace(ctx, otp); err != nil {
		return nil, "", err
	}
	return otp, otp.Code, nil
}

// draft builds an unsaved code row for email.
func (s *OTPService) draft(email string) (*model.OTP, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	return &model.OTP{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}, nil
}

// Verify consumes the code. Unknown, used, expired and concurrently consumed codes
// all yield ErrInvalidOrExpired.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	if email == "" || len(code) != otpDigits {
		return ErrInvalidOrExpired
	}

	otp, err := s.repo.FindUnused(ctx, email, code)
	if err != nil {
		return err
	}
	if otp == nil || otp.IsExpired(s.now()) {
		return ErrInvalidOrExpired
	}

	consumed, err := s.repo.MarkUsed(ctx, otp.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidOrExpired
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp failed: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
