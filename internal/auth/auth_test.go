package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/quillpad/identity/internal/config"
	"github.com/quillpad/identity/internal/throttle"
)

const testFrontendURL = "https://app.example.com"

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:            "test-secret-key",
		SessionTokenDuration: time.Hour,
		VerificationTokenTTL: time.Hour,
		ResetTokenTTL:        time.Hour,
		BcryptCost:           bcrypt.MinCost,
	}
}

// recordingMailer captures dispatched emails so tests can wait on the
// fire-and-forget sends.
type recordingMailer struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

type sentMail struct {
	To   string
	Link string
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, sentMail{To: to, Link: link})
	return nil
}

func (m *recordingMailer) SendPasswordResetLink(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{To: to, Link: link})
	return nil
}

func (m *recordingMailer) verificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.verifications)
}

func (m *recordingMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

func newTestService(t *testing.T) (*Service, *mockRepository, *recordingMailer) {
	repo := newMockRepository()
	mailer := &recordingMailer{}
	svc := NewService(newTestConfig(), newTestLogger(t), repo, mailer, testFrontendURL)
	return svc, repo, mailer
}

func newTestThrottle(t *testing.T, maxAttempts int) *throttle.Throttle {
	cfg := &config.ThrottleConfig{
		MaxAttempts: maxAttempts,
		Window:      time.Minute,
		Penalty:     time.Minute,
	}
	return throttle.New(cfg, throttle.NewMemoryStore(), newTestLogger(t))
}

// registerAndVerify creates a verified account ready for login tests.
func registerAndVerify(t *testing.T, svc *Service, repo *mockRepository, fullName, email, password string) *User {
	require.NoError(t, svc.RegisterUser(fullName, email, password))

	user, err := repo.GetUserByEmail(email)
	require.NoError(t, err)
	require.NotNil(t, user.VerificationToken)

	require.NoError(t, svc.VerifyEmail(*user.VerificationToken))

	user, err = repo.GetUserByEmail(email)
	require.NoError(t, err)
	require.True(t, user.Verified)
	return user
}
