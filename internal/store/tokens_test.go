package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokens(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Accounts().Create(ctx, newAccount("a1", "owner@clinic.test")))
	repo := s.RefreshTokens()

	t.Run("create and get", func(t *testing.T) {
		tok := &RefreshToken{
			Token:       "tok-1",
			AccountID:   "a1",
			ExpiresAt:   time.Now().Add(7 * 24 * time.Hour).UTC(),
			CreatedAt:   time.Now().UTC(),
			CreatedByIP: "10.0.0.1",
		}
		require.NoError(t, repo.Create(ctx, tok))

		got, err := repo.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "a1", got.AccountID)
		assert.Equal(t, "10.0.0.1", got.CreatedByIP)
		assert.True(t, got.IsActive())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(ctx, "no-such")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoke with replacement", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, "tok-1", "10.0.0.2", "tok-2"))

		got, err := repo.Get(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, got.RevokedAt)
		assert.Equal(t, "10.0.0.2", got.RevokedByIP)
		assert.Equal(t, "tok-2", got.ReplacedBy)
		assert.False(t, got.IsActive())

		// Already revoked tokens cannot be revoked again
		assert.ErrorIs(t, repo.Revoke(ctx, "tok-1", "10.0.0.3", ""), ErrNotFound)
	})

	t.Run("owned by", func(t *testing.T) {
		owned, err := repo.OwnedBy(ctx, "tok-1", "a1")
		require.NoError(t, err)
		assert.True(t, owned)

		owned, err = repo.OwnedBy(ctx, "tok-1", "someone-else")
		require.NoError(t, err)
		assert.False(t, owned)

		owned, err = repo.OwnedBy(ctx, "missing", "a1")
		require.NoError(t, err)
		assert.False(t, owned)
	})

	t.Run("purge expired", func(t *testing.T) {
		expired := &RefreshToken{
			Token:     "tok-old",
			AccountID: "a1",
			ExpiresAt: time.Now().Add(-time.Hour).UTC(),
			CreatedAt: time.Now().Add(-8 * 24 * time.Hour).UTC(),
		}
		require.NoError(t, repo.Create(ctx, expired))

		n, err := repo.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.Get(ctx, "tok-old")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("purge compares sub-second expiries correctly", func(t *testing.T) {
		// Expiries with a fractional-second component must still compare
		// against the purge cutoff as times, not as trimmed strings.
		live := &RefreshToken{
			Token:     "tok-frac",
			AccountID: "a1",
			ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second).Add(500 * time.Millisecond).UTC(),
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, live))

		n, err := repo.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		got, err := repo.Get(ctx, "tok-frac")
		require.NoError(t, err)
		assert.True(t, got.ExpiresAt.After(time.Now()))
	})

	t.Run("cascade on account delete", func(t *testing.T) {
		require.NoError(t, s.Accounts().Delete(ctx, "a1"))

		_, err := repo.Get(ctx, "tok-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
