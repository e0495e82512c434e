package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", first)
	assert.NotEqual(t, first, second, "hashes must be salted")
	assert.True(t, h.Verify("secret1", first))
	assert.True(t, h.Verify("secret1", second))
	assert.False(t, h.Verify("secret2", first))
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	h := NewPasswordHasher(0)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestPasswordHasher_Rejections(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short", "secret1"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("secret1", hash))
		})
	}
}
