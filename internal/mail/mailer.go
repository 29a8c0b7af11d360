package mail

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers the two account-lifecycle emails. Callers treat delivery
// as best-effort: a failure is logged, never reflected in the HTTP response.
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
	SendPasswordResetLink(ctx context.Context, to, link string) error
}

// LogSender writes the would-be emails to the log. Used in development and
// tests where no delivery provider is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, to, link string) error {
	s.log.Info("verification email (not delivered)",
		zap.String("to", to),
		zap.String("link", link))
	return nil
}

func (s *LogSender) SendPasswordResetLink(_ context.Context, to, link string) error {
	s.log.Info("password reset email (not delivered)",
		zap.String("to", to),
		zap.String("link", link))
	return nil
}
