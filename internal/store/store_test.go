package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "clinic.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	t.Run("creates database and parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "clinic.db")
		s, err := Open(path, zerolog.Nop())
		require.NoError(t, err)
		defer s.Close()

		assert.FileExists(t, path)
	})

	t.Run("empty path fails", func(t *testing.T) {
		_, err := Open("", zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("reopen preserves data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clinic.db")
		s, err := Open(path, zerolog.Nop())
		require.NoError(t, err)

		acct := &Account{ID: "a1", Email: "vet@clinic.test", PasswordHash: "h",
			FirstName: "Ana", LastName: "Reis", Role: "Vet", CreatedAt: time.Now()}
		require.NoError(t, s.Accounts().Create(context.Background(), acct))
		require.NoError(t, s.Close())

		s, err = Open(path, zerolog.Nop())
		require.NoError(t, err)
		defer s.Close()

		got, err := s.Accounts().GetByID(context.Background(), "a1")
		require.NoError(t, err)
		assert.Equal(t, "vet@clinic.test", got.Email)
	})
}
