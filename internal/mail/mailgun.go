package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/quillpad/identity/internal/config"
)

const (
	verificationSubject = "Verify your account"
	resetSubject        = "Reset your password"
)

type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(cfg *config.MailConfig) *MailgunSender {
	return &MailgunSender{
		mg:   mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey),
		from: cfg.FromAddress,
	}
}

func (s *MailgunSender) SendVerificationEmail(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("Please verify your account by visiting the link below.\n\n%s\n\nThe link expires in one hour.", link)
	msg := s.mg.NewMessage(s.from, verificationSubject, body, to)
	_, _, err := s.mg.Send(ctx, msg)
	return err
}

func (s *MailgunSender) SendPasswordResetLink(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("A password reset was requested for your account.\n\n%s\n\nIf you did not request this, ignore this email.", link)
	msg := s.mg.NewMessage(s.from, resetSubject, body, to)
	_, _, err := s.mg.Send(ctx, msg)
	return err
}
