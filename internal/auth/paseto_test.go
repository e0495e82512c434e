package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPasetoKey = bytes.Repeat([]byte{0x42}, 32)

func TestPasetoService_RoundTrip(t *testing.T) {
	s, err := NewPasetoService(testPasetoKey, time.Hour)
	require.NoError(t, err)

	token, err := s.CreateToken("7")
	require.NoError(t, err)
	assert.Contains(t, token, "v4.local.")

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
}

func TestPasetoService_Expired(t *testing.T) {
	s, err := NewPasetoService(testPasetoKey, time.Hour)
	require.NoError(t, err)

	token, err := s.CreateToken("7")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoService_WrongKey(t *testing.T) {
	a, err := NewPasetoService(testPasetoKey, time.Hour)
	require.NoError(t, err)
	b, err := NewPasetoService(bytes.Repeat([]byte{0x01}, 32), time.Hour)
	require.NoError(t, err)

	token, err := a.CreateToken("7")
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.VerifyToken("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasetoService_Keys(t *testing.T) {
	_, err := NewPasetoService([]byte("short"), time.Hour)
	assert.Error(t, err)

	unconfigured, err := NewPasetoService(nil, time.Hour)
	require.NoError(t, err)

	_, err = unconfigured.CreateToken("7")
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = unconfigured.VerifyToken("v4.local.anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}
