package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	// ErrMissingSecret means no signing key is configured. Tokens are never
	// issued or accepted in that state.
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// TokenClaims is what a verified token asserts: who and until when.
type TokenClaims struct {
	Subject   string    `json:"sub"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(subject string) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
