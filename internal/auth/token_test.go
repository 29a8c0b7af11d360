package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SessionTokenRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)

	token, err := svc.GenerateSessionToken(42, "Ada Lovelace")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.FullName)
}

func TestService_ValidateSessionToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name       string
		setupToken func(t *testing.T) string
		wantErr    error
	}{
		{
			name: "expired token",
			setupToken: func(t *testing.T) string {
				cfg := newTestConfig()
				cfg.SessionTokenDuration = -time.Hour
				expiredSvc := NewService(cfg, newTestLogger(t), newMockRepository(), &recordingMailer{}, testFrontendURL)
				token, err := expiredSvc.GenerateSessionToken(1, "Ada")
				require.NoError(t, err)
				return token
			},
			wantErr: ErrSessionExpired,
		},
		{
			name: "token signed with a different key",
			setupToken: func(t *testing.T) string {
				cfg := newTestConfig()
				cfg.JWTSecret = "some-other-secret"
				otherSvc := NewService(cfg, newTestLogger(t), newMockRepository(), &recordingMailer{}, testFrontendURL)
				token, err := otherSvc.GenerateSessionToken(1, "Ada")
				require.NoError(t, err)
				return token
			},
			wantErr: ErrSessionInvalid,
		},
		{
			name: "garbage token",
			setupToken: func(t *testing.T) string {
				return "invalid.token.here"
			},
			wantErr: ErrSessionInvalid,
		},
		{
			name: "tampered payload",
			setupToken: func(t *testing.T) string {
				token, err := svc.GenerateSessionToken(1, "Ada")
				require.NoError(t, err)
				return token[:len(token)-4] + "AAAA"
			},
			wantErr: ErrSessionInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.setupToken(t)
			claims, err := svc.ValidateSessionToken(token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestNewOpaqueToken(t *testing.T) {
	first, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.Len(t, first, 40)
	assert.Regexp(t, "^[0-9a-f]{40}$", first)

	second, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
