package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(id, email string) *Account {
	return &Account{
		ID:           id,
		Email:        email,
		PasswordHash: "argon2-hash",
		FirstName:    "Maria",
		LastName:     "Silva",
		Role:         "Tutor",
		AcceptTerms:  true,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAccountsCRUD(t *testing.T) {
	s := openTestStore(t)
	repo := s.Accounts()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		acct := newAccount("a1", "maria@clinic.test")
		require.NoError(t, repo.Create(ctx, acct))

		got, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "maria@clinic.test", got.Email)
		assert.Equal(t, "Tutor", got.Role)
		assert.True(t, got.AcceptTerms)
		assert.Nil(t, got.VerifiedAt)

		byEmail, err := repo.GetByEmail(ctx, "maria@clinic.test")
		require.NoError(t, err)
		assert.Equal(t, "a1", byEmail.ID)
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		dup := newAccount("a2", "maria@clinic.test")
		assert.Error(t, repo.Create(ctx, dup))
	})

	t.Run("update", func(t *testing.T) {
		acct, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)

		acct.FirstName = "Mariana"
		now := time.Now().UTC()
		acct.VerifiedAt = &now
		require.NoError(t, repo.Update(ctx, acct))

		got, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "Mariana", got.FirstName)
		require.NotNil(t, got.VerifiedAt)
		assert.NotNil(t, got.UpdatedAt)
		assert.True(t, got.IsVerified())
	})

	t.Run("update missing account", func(t *testing.T) {
		ghost := newAccount("no-such", "ghost@clinic.test")
		assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newAccount("a3", "del@clinic.test")))
		require.NoError(t, repo.Delete(ctx, "a3"))

		_, err := repo.GetByID(ctx, "a3")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "a3"), ErrNotFound)
	})
}

func TestAccountsTokenLookups(t *testing.T) {
	s := openTestStore(t)
	repo := s.Accounts()
	ctx := context.Background()

	acct := newAccount("a1", "maria@clinic.test")
	acct.Verification = "verify-123"
	require.NoError(t, repo.Create(ctx, acct))

	t.Run("verification token", func(t *testing.T) {
		got, err := repo.GetByVerificationToken(ctx, "verify-123")
		require.NoError(t, err)
		assert.Equal(t, "a1", got.ID)

		_, err = repo.GetByVerificationToken(ctx, "wrong")
		assert.ErrorIs(t, err, ErrNotFound)

		// An empty token never matches, even against unverified accounts
		_, err = repo.GetByVerificationToken(ctx, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reset token honors expiry", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)

		future := time.Now().Add(time.Hour).UTC()
		got.ResetToken = "reset-abc"
		got.ResetExpires = &future
		require.NoError(t, repo.Update(ctx, got))

		found, err := repo.GetByResetToken(ctx, "reset-abc")
		require.NoError(t, err)
		assert.Equal(t, "a1", found.ID)

		past := time.Now().Add(-time.Hour).UTC()
		got.ResetExpires = &past
		require.NoError(t, repo.Update(ctx, got))

		_, err = repo.GetByResetToken(ctx, "reset-abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clear expired reset tokens", func(t *testing.T) {
		n, err := repo.ClearExpiredResetTokens(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Empty(t, got.ResetToken)
		assert.Nil(t, got.ResetExpires)
	})
}

func TestAccountsListAndGetMany(t *testing.T) {
	s := openTestStore(t)
	repo := s.Accounts()
	ctx := context.Background()

	first := newAccount("a1", "one@clinic.test")
	first.CreatedAt = time.Now().Add(-time.Hour).UTC()
	second := newAccount("a2", "two@clinic.test")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	t.Run("list newest first", func(t *testing.T) {
		accounts, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "a2", accounts[0].ID)
		assert.Equal(t, "a1", accounts[1].ID)
	})

	t.Run("get many skips missing ids", func(t *testing.T) {
		accounts, err := repo.GetMany(ctx, []string{"a1", "missing", "a2"})
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("get many with no ids", func(t *testing.T) {
		accounts, err := repo.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}
