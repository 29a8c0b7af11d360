package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatedHandler(t *testing.T) (*AuthMiddleware, *Service, *mockRepository, http.Handler) {
	svc, repo, _ := newTestService(t)
	mw := NewAuthMiddleware(svc, newTestLogger(t))

	protected := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-Principal", user.FullName)
		w.WriteHeader(http.StatusOK)
	}))

	return mw, svc, repo, protected
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	_, _, _, protected := newGatedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Not authorized, no token")
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	_, svc, repo, protected := newGatedHandler(t)
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	token, err := svc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", rr.Header().Get("X-Principal"))
}

func TestAuthMiddleware_BearerFallback(t *testing.T) {
	_, svc, repo, protected := newGatedHandler(t)
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	token, err := svc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", rr.Header().Get("X-Principal"))
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	_, svc, repo, protected := newGatedHandler(t)
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	token, err := svc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	req.Header.Set("Authorization", "Bearer garbage-token")
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_RejectedTokens(t *testing.T) {
	_, svc, repo, protected := newGatedHandler(t)
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	expiredCfg := newTestConfig()
	expiredCfg.SessionTokenDuration = -time.Hour
	expiredSvc := NewService(expiredCfg, newTestLogger(t), repo, &recordingMailer{}, testFrontendURL)
	expiredToken, err := expiredSvc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	foreignCfg := newTestConfig()
	foreignCfg.JWTSecret = "some-other-secret"
	foreignSvc := NewService(foreignCfg, newTestLogger(t), repo, &recordingMailer{}, testFrontendURL)
	foreignToken, err := foreignSvc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired token", token: expiredToken},
		{name: "wrong signing key", token: foreignToken},
		{name: "garbage token", token: "invalid.token.here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.token})
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			// The client-visible message is identical for every rejection.
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), "Invalid token")
		})
	}
}

func TestAuthMiddleware_VanishedPrincipal(t *testing.T) {
	_, svc, repo, protected := newGatedHandler(t)
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	token, err := svc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)
	repo.deleteUser(user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddleware_ExcludesCredentialHash(t *testing.T) {
	svc, repo, _ := newTestService(t)
	mw := NewAuthMiddleware(svc, newTestLogger(t))
	user := registerAndVerify(t, svc, repo, "Ada", "ada@x.com", "secret123")

	protected := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := UserFromContext(r.Context())
		require.NoError(t, err)
		assert.Empty(t, principal.PasswordHash)
		w.WriteHeader(http.StatusOK)
	}))

	token, err := svc.GenerateSessionToken(user.ID, user.FullName)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
