package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Account is a clinic user: admin, vet, nurse or tutor.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Avatar       string     `json:"avatar,omitempty"`
	Telephone    string     `json:"telephone,omitempty"`
	Cellphone    string     `json:"cellphone,omitempty"`
	Street       string     `json:"street,omitempty"`
	StreetNumber string     `json:"streetNumber,omitempty"`
	PostalCode   string     `json:"postalCode,omitempty"`
	Birthday     string     `json:"birthday,omitempty"`
	CPF          string     `json:"cpf,omitempty"`
	AcceptTerms  bool       `json:"acceptTerms"`
	Role         string     `json:"role"`
	Verification string     `json:"-"`
	VerifiedAt   *time.Time `json:"verified,omitempty"`
	ResetToken   string     `json:"-"`
	ResetExpires *time.Time `json:"-"`
	PasswordAt   *time.Time `json:"passwordReset,omitempty"`
	CreatedAt    time.Time  `json:"created"`
	UpdatedAt    *time.Time `json:"updated,omitempty"`
}

// IsVerified reports whether the account confirmed its email or completed a
// password reset.
func (a *Account) IsVerified() bool {
	return a.VerifiedAt != nil || a.PasswordAt != nil
}

// Accounts is the account repository.
type Accounts struct {
	store *Store
}

// Accounts returns the account repository.
func (s *Store) Accounts() *Accounts {
	return &Accounts{store: s}
}

const accountColumns = `id, email, password_hash, first_name, last_name, avatar, telephone,
	cellphone, street, street_number, postal_code, birthday, cpf, accept_terms, role,
	verification_token, verified_at, reset_token, reset_expires_at, password_reset_at,
	created_at, updated_at`

// Create inserts a new account. A duplicate email fails the insert via the
// unique constraint.
func (r *Accounts) Create(ctx context.Context, acct *Account) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Email, acct.PasswordHash, acct.FirstName, acct.LastName,
		acct.Avatar, acct.Telephone, acct.Cellphone, acct.Street, acct.StreetNumber,
		acct.PostalCode, acct.Birthday, acct.CPF, acct.AcceptTerms, acct.Role,
		acct.Verification, formatNullTime(acct.VerifiedAt), acct.ResetToken,
		formatNullTime(acct.ResetExpires), formatNullTime(acct.PasswordAt),
		formatTime(acct.CreatedAt), formatNullTime(acct.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Update rewrites every mutable field of an account.
func (r *Accounts) Update(ctx context.Context, acct *Account) error {
	now := time.Now().UTC()
	acct.UpdatedAt = &now

	res, err := r.store.db.ExecContext(ctx,
		`UPDATE accounts SET email = ?, password_hash = ?, first_name = ?, last_name = ?,
		 avatar = ?, telephone = ?, cellphone = ?, street = ?, street_number = ?,
		 postal_code = ?, birthday = ?, cpf = ?, accept_terms = ?, role = ?,
		 verification_token = ?, verified_at = ?, reset_token = ?, reset_expires_at = ?,
		 password_reset_at = ?, updated_at = ? WHERE id = ?`,
		acct.Email, acct.PasswordHash, acct.FirstName, acct.LastName, acct.Avatar,
		acct.Telephone, acct.Cellphone, acct.Street, acct.StreetNumber, acct.PostalCode,
		acct.Birthday, acct.CPF, acct.AcceptTerms, acct.Role, acct.Verification,
		formatNullTime(acct.VerifiedAt), acct.ResetToken, formatNullTime(acct.ResetExpires),
		formatNullTime(acct.PasswordAt), formatNullTime(acct.UpdatedAt), acct.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res)
}

// Delete removes an account and, via cascade, its refresh tokens.
func (r *Accounts) Delete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireRow(res)
}

// GetByID fetches one account.
func (r *Accounts) GetByID(ctx context.Context, id string) (*Account, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetByEmail fetches one account by email.
func (r *Accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

// GetByVerificationToken fetches the account holding a verification token.
func (r *Accounts) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE verification_token = ? AND verification_token != ''`, token)
	return scanAccount(row)
}

// GetByResetToken fetches the account holding an unexpired reset token.
func (r *Accounts) GetByResetToken(ctx context.Context, token string) (*Account, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE reset_token = ? AND reset_token != '' AND reset_expires_at > ?`,
		token, formatTime(time.Now()))
	return scanAccount(row)
}

// List returns every account, newest first.
func (r *Accounts) List(ctx context.Context) ([]*Account, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// GetMany returns the accounts matching the given IDs. Missing IDs are
// skipped, not errors.
func (r *Accounts) GetMany(ctx context.Context, ids []string) ([]*Account, error) {
	if len(ids) == 0 {
		return []*Account{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ClearExpiredResetTokens blanks reset tokens past their expiry. Returns the
// number of accounts touched; used by the maintenance scheduler.
func (r *Accounts) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE accounts SET reset_token = '', reset_expires_at = NULL
		 WHERE reset_token != '' AND reset_expires_at <= ?`,
		formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var acct Account
	var verifiedAt, resetExpires, passwordAt, createdAt, updatedAt sql.NullString

	err := row.Scan(
		&acct.ID, &acct.Email, &acct.PasswordHash, &acct.FirstName, &acct.LastName,
		&acct.Avatar, &acct.Telephone, &acct.Cellphone, &acct.Street, &acct.StreetNumber,
		&acct.PostalCode, &acct.Birthday, &acct.CPF, &acct.AcceptTerms, &acct.Role,
		&acct.Verification, &verifiedAt, &acct.ResetToken, &resetExpires, &passwordAt,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acct.VerifiedAt = parseNullTime(verifiedAt)
	acct.ResetExpires = parseNullTime(resetExpires)
	acct.PasswordAt = parseNullTime(passwordAt)
	if t := parseNullTime(createdAt); t != nil {
		acct.CreatedAt = *t
	}
	acct.UpdatedAt = parseNullTime(updatedAt)
	return &acct, nil
}

func collectAccounts(rows *sql.Rows) ([]*Account, error) {
	accounts := make([]*Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func formatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
