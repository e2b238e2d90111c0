package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"blog-backend/internal/metrics"
	"blog-backend/internal/model"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/pkg/password"
	"blog-backend/internal/repository"
)

// EmailDispatcher hands a verification mail to a background sender. Dispatch
// must not block on delivery.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, job model.EmailJob)
}

// OTPThrottle reports whether another code may be sent to email right now.
type OTPThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

type AuthDeps struct {
	Users    *repository.UserRepository
	OTPs     *OTPService
	Hasher   password.Hasher
	Tokens   *jwtutil.Manager
	Gate     *AuthGate
	Mailer   EmailDispatcher
	Throttle OTPThrottle
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

type AuthService struct {
	users    *repository.UserRepository
	otps     *OTPService
	hasher   password.Hasher
	tokens   *jwtutil.Manager
	gate     *AuthGate
	mailer   EmailDispatcher
	throttle OTPThrottle
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

type SignupInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

type AuthResult struct {
	User   *model.User
	Tokens *jwtutil.TokenPair
}

func NewAuthService(deps AuthDeps) *AuthService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	gate := deps.Gate
	if gate == nil {
		gate = NewAuthGate(deps.Users, deps.Tokens)
	}
	return &AuthService{
		users:    deps.Users,
		otps:     deps.OTPs,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		gate:     gate,
		mailer:   deps.Mailer,
		throttle: deps.Throttle,
		metrics:  deps.Metrics,
		log:      log.Named("auth"),
		now:      now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account and its first verification code in one
// transaction, then mails the code. A failed mail never fails the signup.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || username == "" || fullName == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.AuthEvent("signup", metrics.OutcomeFailure)
		return nil, ErrEmailExists
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.AuthEvent("signup", metrics.OutcomeFailure)
		return nil, ErrUsernameExists
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		FullName:     fullName,
		PasswordHash: digest,
		IsActive:     true,
	}
	otp, err := s.otps.draft(email)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateWithOTP(ctx, user, otp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.AuthEvent("signup", metrics.OutcomeFailure)
			return nil, s.duplicateCause(ctx, email)
		}
		return nil, err
	}
	s.dispatchCode(ctx, otp)

	s.metrics.AuthEvent("signup", metrics.OutcomeSuccess)
	s.log.Info("user signed up", zap.Uint("user_id", user.ID))
	return user, nil
}

// duplicateCause tells a lost email race from a lost username race.
func (s *AuthService) duplicateCause(ctx context.Context, email string) error {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// VerifyEmail consumes the code, marks the account verified and starts a session.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	if err := s.otps.Verify(ctx, email, code); err != nil {
		if errors.Is(err, ErrInvalidOrExpired) {
			s.metrics.AuthEvent("verify", metrics.OutcomeFailure)
		}
		return nil, err
	}

	user, err := s.users.MarkVerified(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("verify", metrics.OutcomeSuccess)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login checks credentials before account state, so an unverified account with a
// wrong password still gets ErrInvalidCredential.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || plaintext == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.VerifyDummy(plaintext)
		s.metrics.AuthEvent("login", metrics.OutcomeFailure)
		return nil, ErrInvalidCredential
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		s.metrics.AuthEvent("login", metrics.OutcomeFailure)
		return nil, ErrInvalidCredential
	}
	if !user.Verified {
		s.metrics.AuthEvent("login", metrics.OutcomeFailure)
		return nil, ErrUnverified
	}
	if !user.IsActive {
		s.metrics.AuthEvent("login", metrics.OutcomeFailure)
		return nil, ErrInactive
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("login", metrics.OutcomeSuccess)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// ResendOTP issues a new code when email belongs to an unverified account. The
// result is the same whether or not the account exists.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.log.Warn("otp throttle unavailable", zap.Error(err))
		} else if !allowed {
			s.metrics.AuthEvent("resend_otp", metrics.OutcomeDropped)
			return ErrTooManyRequests
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.Verified {
		return nil
	}

	if err := s.sendCode(ctx, email); err != nil {
		return err
	}
	s.metrics.AuthEvent("resend_otp", metrics.OutcomeSuccess)
	return nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	user, err := s.gate.Resolve(ctx, refreshToken, jwtutil.TokenTypeRefresh, RequireActiveUser)
	if err != nil {
		s.metrics.AuthEvent("refresh", metrics.OutcomeFailure)
		return "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, jwtutil.TokenTypeAccess)
	if err != nil {
		return "", time.Time{}, err
	}
	s.metrics.AuthEvent("refresh", metrics.OutcomeSuccess)
	return token, expiresAt, nil
}

func (s *AuthService) sendCode(ctx context.Context, email string) error {
	otp, _, err := s.otps.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("issue otp failed: %w", err)
	}
	s.dispatchCode(ctx, otp)
	return nil
}

func (s *AuthService) dispatchCode(ctx context.Context, otp *model.OTP) {
	if s.mailer == nil {
		return
	}
	s.mailer.Dispatch(ctx, model.EmailJob{
		Email:      otp.Email,
		Code:       otp.Code,
		ExpiresAt:  otp.ExpiresAt,
		EnqueuedAt: s.now().UTC(),
	})
}
