package app_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blog-backend/internal/app"
	"blog-backend/internal/model"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/pkg/password"
	"blog-backend/internal/platform/sqlite"
	"blog-backend/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	jobs []model.EmailJob
}

func (m *recordingMailer) Dispatch(_ context.Context, job model.EmailJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.jobs, "no email dispatched")
	return m.jobs[len(m.jobs)-1].Code
}

type toggleThrottle struct {
	deny bool
}

func (th *toggleThrottle) Allow(context.Context, string) (bool, error) {
	return !th.deny, nil
}

type harness struct {
	db       *gorm.DB
	clock    *testClock
	users    *repository.UserRepository
	otps     *app.OTPService
	tokens   *jwtutil.Manager
	gate     *app.AuthGate
	auth     *app.AuthService
	mailer   *recordingMailer
	throttle *toggleThrottle
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "app.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	users := repository.NewUserRepository(db)
	otps := app.NewOTPService(repository.NewOTPRepository(db), 10*time.Minute, clock.Now)
	tokens := jwtutil.NewManager("test-secret", 30*time.Minute, 7*24*time.Hour).WithClock(clock.Now)
	gate := app.NewAuthGate(users, tokens)
	mailer := &recordingMailer{}
	throttle := &toggleThrottle{}

	auth := app.NewAuthService(app.AuthDeps{
		Users:    users,
		OTPs:     otps,
		Hasher:   password.NewBcryptHasher(bcrypt.MinCost),
		Tokens:   tokens,
		Gate:     gate,
		Mailer:   mailer,
		Throttle: throttle,
		Now:      clock.Now,
	})

	return &harness{
		db:       db,
		clock:    clock,
		users:    users,
		otps:     otps,
		tokens:   tokens,
		gate:     gate,
		auth:     auth,
		mailer:   mailer,
		throttle: throttle,
	}
}

// verifiedUser signs up and verifies an account, returning it with its session.
func (h *harness) verifiedUser(t *testing.T, email, username string) *app.AuthResult {
	t.Helper()
	ctx := context.Background()
	_, err := h.auth.Signup(ctx, app.SignupInput{Email: email, Username: username, FullName: username, Password: "pw1"})
	require.NoError(t, err)
	result, err := h.auth.VerifyEmail(ctx, email, h.mailer.lastCode(t))
	require.NoError(t, err)
	return result
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}
