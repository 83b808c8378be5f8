package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	// Fresh salt every time
	again, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, VerifyPassword("hunter2", hash))
	})

	t.Run("mismatch", func(t *testing.T) {
		assert.ErrorIs(t, VerifyPassword("hunter3", hash), ErrHashMismatch)
	})

	t.Run("malformed hash", func(t *testing.T) {
		assert.Error(t, VerifyPassword("hunter2", "bcrypt$nonsense"))
		assert.Error(t, VerifyPassword("hunter2", ""))
	})
}

func TestNewRandomToken(t *testing.T) {
	one, err := NewRandomToken()
	require.NoError(t, err)
	assert.Len(t, one, 64)

	two, err := NewRandomToken()
	require.NoError(t, err)
	assert.NotEqual(t, one, two)
}
