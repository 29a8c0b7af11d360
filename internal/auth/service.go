package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/config"
	"github.com/quillpad/identity/internal/mail"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("user not verified")
)

const mailDispatchTimeout = 30 * time.Second

type Service struct {
	config      *config.AuthConfig
	log         *zap.Logger
	repository  Repository
	mailer      mail.Sender
	frontendURL string
}

func NewService(config *config.AuthConfig, log *zap.Logger, repo Repository, mailer mail.Sender, frontendURL string) *Service {
	return &Service{
		config:      config,
		log:         log,
		repository:  repo,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

// RegisterUser creates an unverified principal with a fresh verification
// token and dispatches the verification email. The raw token never leaves
// the server except inside that email.
func (s *Service) RegisterUser(fullName, email, password string) error {
	if _, err := s.repository.GetUserByEmail(email); err == nil {
		return ErrUserExists
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.config.VerificationTokenTTL)

	user := &User{
		FullName:                fullName,
		Email:                   email,
		PasswordHash:            hashedPassword,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
	}

	if err := s.repository.CreateUser(user); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/verify/%s", s.frontendURL, token)
	s.dispatch(func(ctx context.Context) error {
		return s.mailer.SendVerificationEmail(ctx, user.Email, link)
	})

	return nil
}

// VerifyEmail consumes a verification token. Returns ErrTokenNotFound for an
// unknown token and ErrTokenExpired for a stale one.
func (s *Service) VerifyEmail(token string) error {
	return s.repository.ConsumeVerificationToken(token, time.Now())
}

// Login checks the credentials and returns the principal with a fresh
// session token.
func (s *Service) Login(email, password string) (*User, string, error) {
	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a compare so an unknown email costs as much as a wrong
			// password.
			s.CheckPasswordHash(password, string(dummyHash))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.Verified {
		return nil, "", ErrNotVerified
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateSessionToken(user.ID, user.FullName)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ForgotPassword issues a reset token when the account exists. The caller
// responds identically either way; an unknown email is only logged.
func (s *Service) ForgotPassword(email string) error {
	user, err := s.repository.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.Debug("password reset requested for unknown email",
				zap.String("email", email))
			return nil
		}
		return err
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(s.config.ResetTokenTTL)

	if err := s.repository.SetResetToken(user.ID, token, expiry); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	s.dispatch(func(ctx context.Context) error {
		return s.mailer.SendPasswordResetLink(ctx, user.Email, link)
	})

	return nil
}

// ResetPassword swaps the credential hash for the user owning the token.
// The token and its expiry are cleared in the same update, so a second use
// fails with ErrTokenExpired.
func (s *Service) ResetPassword(token, newPassword string) error {
	newHash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repository.ConsumeResetToken(token, time.Now(), newHash)
}

// CurrentUser resolves the principal for a validated session, with the
// credential hash excluded.
func (s *Service) CurrentUser(id uint) (*User, error) {
	user, err := s.repository.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// dispatch runs a mail send on its own goroutine. The response to the client
// never waits on delivery.
func (s *Service) dispatch(send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.log.Error("email dispatch failed", zap.Error(err))
		}
	}()
}
