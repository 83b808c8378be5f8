package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RefreshToken is a rotating long-lived credential for one account.
type RefreshToken struct {
	Token       string     `json:"token"`
	AccountID   string     `json:"-"`
	ExpiresAt   time.Time  `json:"expires"`
	CreatedAt   time.Time  `json:"created"`
	CreatedByIP string     `json:"createdByIp,omitempty"`
	RevokedAt   *time.Time `json:"revoked,omitempty"`
	RevokedByIP string     `json:"revokedByIp,omitempty"`
	ReplacedBy  string     `json:"replacedByToken,omitempty"`
}

// IsActive reports whether the token can still be exchanged.
func (t *RefreshToken) IsActive() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}

// RefreshTokens is the refresh token repository.
type RefreshTokens struct {
	store *Store
}

// RefreshTokens returns the refresh token repository.
func (s *Store) RefreshTokens() *RefreshTokens {
	return &RefreshTokens{store: s}
}

// Create inserts a new refresh token.
func (r *RefreshTokens) Create(ctx context.Context, tok *RefreshToken) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, account_id, expires_at, created_at, created_by_ip)
		 VALUES (?, ?, ?, ?, ?)`,
		tok.Token, tok.AccountID,
		formatTime(tok.ExpiresAt),
		formatTime(tok.CreatedAt),
		tok.CreatedByIP,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// Get fetches a refresh token.
func (r *RefreshTokens) Get(ctx context.Context, token string) (*RefreshToken, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT token, account_id, expires_at, created_at, created_by_ip, revoked_at, revoked_by_ip, replaced_by
		 FROM refresh_tokens WHERE token = ?`, token)

	var tok RefreshToken
	var expiresAt, createdAt string
	var revokedAt sql.NullString

	err := row.Scan(&tok.Token, &tok.AccountID, &expiresAt, &createdAt,
		&tok.CreatedByIP, &revokedAt, &tok.RevokedByIP, &tok.ReplacedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan refresh token: %w", err)
	}

	if tok.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse token expiry: %w", err)
	}
	if tok.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse token creation: %w", err)
	}
	tok.RevokedAt = parseNullTime(revokedAt)
	return &tok, nil
}

// Revoke marks a token revoked, optionally recording its replacement.
func (r *RefreshTokens) Revoke(ctx context.Context, token, byIP, replacedBy string) error {
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, revoked_by_ip = ?, replaced_by = ?
		 WHERE token = ? AND revoked_at IS NULL`,
		formatTime(time.Now()), byIP, replacedBy, token)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return requireRow(res)
}

// OwnedBy reports whether the token belongs to the account.
func (r *RefreshTokens) OwnedBy(ctx context.Context, token, accountID string) (bool, error) {
	tok, err := r.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tok.AccountID == accountID, nil
}

// PurgeExpired deletes tokens past expiry. Returns the number removed; used
// by the maintenance scheduler.
func (r *RefreshTokens) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.store.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`,
		formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
