package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSessionExpired = errors.New("session token expired")
	ErrSessionInvalid = errors.New("invalid session token")
)

type SessionClaims struct {
	UserID   uint   `json:"id"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// GenerateSessionToken issues a signed bearer token for the user. The token
// is never persisted; it stays valid until its expiry or until the signing
// key rotates.
func (s *Service) GenerateSessionToken(userID uint, fullName string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   userID,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateSessionToken checks the signature before trusting any claim and
// reports expiry distinctly so callers can log it apart from tampering.
func (s *Service) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}

	if !token.Valid {
		return nil, ErrSessionInvalid
	}

	return claims, nil
}

const opaqueTokenBytes = 20

// NewOpaqueToken returns a 40-hex-character single-use token drawn from the
// platform CSPRNG. Guessability would defeat the single-use invariant, so
// a failed read is surfaced rather than papered over.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
