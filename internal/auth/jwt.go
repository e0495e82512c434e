package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService signs HS256 tokens that carry only a subject and an expiry.
type JWTService struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret string, duration time.Duration) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// CreateToken issues a token for subject valid for the configured duration.
func (s *JWTService) CreateToken(subject string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(s.now().Add(s.duration)),
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, nil
}

// VerifyToken checks signature, algorithm and expiry and returns the claims.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
