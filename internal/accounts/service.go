// Package accounts implements account lifecycle: registration, email
// verification, authentication with rotating refresh tokens and password
// reset.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/auth"
	"github.com/vetdesk/vetdesk/internal/observability"
	"github.com/vetdesk/vetdesk/internal/store"
)

// ErrInvalidCredentials covers unknown email, wrong password and unverified
// accounts; callers must not be able to tell these apart.
var ErrInvalidCredentials = errors.New("email or password is incorrect")

// ErrInvalidToken is returned for unknown, expired or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email is already registered")

// Service provides account operations.
type Service struct {
	accounts   *store.Accounts
	refresh    *store.RefreshTokens
	tokens     *auth.TokenManager
	logger     zerolog.Logger
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewService creates an account service.
func NewService(s *store.Store, tokens *auth.TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		accounts:   s.Accounts(),
		refresh:    s.RefreshTokens(),
		tokens:     tokens,
		logger:     logger,
		refreshTTL: 7 * 24 * time.Hour,
		resetTTL:   24 * time.Hour,
	}
}

// RegisterParams are the fields accepted at self-registration.
type RegisterParams struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Avatar       string
	Telephone    string
	Cellphone    string
	Street       string
	StreetNumber string
	PostalCode   string
	Birthday     string
	CPF          string
	AcceptTerms  bool
	Role         string
}

// Register creates an unverified account and returns its verification token.
// In the deployed system the token goes out by email; the API only ever
// returns it to the caller in tests.
func (svc *Service) Register(ctx context.Context, params RegisterParams) (*store.Account, string, error) {
	if existing, err := svc.accounts.GetByEmail(ctx, params.Email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	verification, err := auth.NewRandomToken()
	if err != nil {
		return nil, "", err
	}

	role := params.Role
	if role == "" {
		role = auth.RoleTutor
	}

	acct := &store.Account{
		ID:           uuid.New().String(),
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Avatar:       params.Avatar,
		Telephone:    params.Telephone,
		Cellphone:    params.Cellphone,
		Street:       params.Street,
		StreetNumber: params.StreetNumber,
		PostalCode:   params.PostalCode,
		Birthday:     params.Birthday,
		CPF:          params.CPF,
		AcceptTerms:  params.AcceptTerms,
		Role:         role,
		Verification: verification,
		CreatedAt:    time.Now().UTC(),
	}

	if err := svc.accounts.Create(ctx, acct); err != nil {
		return nil, "", err
	}

	svc.logger.Info().Str("accountId", acct.ID).Str("role", acct.Role).Msg("Account registered")
	return acct, verification, nil
}

// VerifyEmail confirms an account via its verification token.
func (svc *Service) VerifyEmail(ctx context.Context, token string) error {
	acct, err := svc.accounts.GetByVerificationToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	acct.VerifiedAt = &now
	acct.Verification = ""
	return svc.accounts.Update(ctx, acct)
}

// AuthResult is a successful authentication: the account plus a short-lived
// access token and a rotating refresh token.
type AuthResult struct {
	Account      *store.Account
	AccessToken  string
	RefreshToken string
}

// Authenticate checks credentials and issues tokens. Unverified accounts are
// rejected with the same error as bad credentials.
func (svc *Service) Authenticate(ctx context.Context, email, password, ip string) (*AuthResult, error) {
	acct, err := svc.accounts.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		observability.RecordAuthAttempt("unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !acct.IsVerified() {
		observability.RecordAuthAttempt("unverified")
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, acct.PasswordHash); err != nil {
		observability.RecordAuthAttempt("bad_password")
		observability.RecordSecurityAudit(ctx, "authenticate", acct.ID, "failure", nil)
		return nil, ErrInvalidCredentials
	}

	result, err := svc.issueTokens(ctx, acct, ip)
	if err != nil {
		return nil, err
	}

	observability.RecordAuthAttempt("success")
	observability.RecordSecurityAudit(ctx, "authenticate", acct.ID, "success", nil)
	return result, nil
}

// Refresh exchanges an active refresh token for a new token pair, revoking
// the old token and linking it to its replacement.
func (svc *Service) Refresh(ctx context.Context, token, ip string) (*AuthResult, error) {
	current, err := svc.refresh.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, ErrInvalidToken
	}

	acct, err := svc.accounts.GetByID(ctx, current.AccountID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	result, err := svc.issueTokens(ctx, acct, ip)
	if err != nil {
		return nil, err
	}

	if err := svc.refresh.Revoke(ctx, token, ip, result.RefreshToken); err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke invalidates a refresh token. Accounts may revoke their own tokens;
// admins may revoke any. The caller enforces that rule via OwnsToken.
func (svc *Service) Revoke(ctx context.Context, token, ip string) error {
	err := svc.refresh.Revoke(ctx, token, ip, "")
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// OwnsToken reports whether the refresh token belongs to the account.
func (svc *Service) OwnsToken(ctx context.Context, token, accountID string) (bool, error) {
	return svc.refresh.OwnedBy(ctx, token, accountID)
}

// ForgotPassword stores a time-limited reset token for the account. An
// unknown email is a silent success so the endpoint cannot be used to probe
// for registered addresses.
func (svc *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	acct, err := svc.accounts.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	token, err := auth.NewRandomToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().UTC().Add(svc.resetTTL)
	acct.ResetToken = token
	acct.ResetExpires = &expires
	if err := svc.accounts.Update(ctx, acct); err != nil {
		return "", err
	}

	svc.logger.Info().Str("accountId", acct.ID).Msg("Password reset token issued")
	return token, nil
}

// ValidateResetToken checks that a reset token exists and has not expired.
func (svc *Service) ValidateResetToken(ctx context.Context, token string) error {
	_, err := svc.accounts.GetByResetToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// ResetPassword sets a new password via a valid reset token.
func (svc *Service) ResetPassword(ctx context.Context, token, password string) error {
	acct, err := svc.accounts.GetByResetToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	acct.PasswordHash = hash
	acct.PasswordAt = &now
	acct.ResetToken = ""
	acct.ResetExpires = nil

	if err := svc.accounts.Update(ctx, acct); err != nil {
		return err
	}
	observability.RecordSecurityAudit(ctx, "password_reset", acct.ID, "success", nil)
	return nil
}

// GetAll returns every account.
func (svc *Service) GetAll(ctx context.Context) ([]*store.Account, error) {
	return svc.accounts.List(ctx)
}

// GetByID returns one account.
func (svc *Service) GetByID(ctx context.Context, id string) (*store.Account, error) {
	return svc.accounts.GetByID(ctx, id)
}

// GetMany returns the accounts matching the given IDs.
func (svc *Service) GetMany(ctx context.Context, ids []string) ([]*store.Account, error) {
	return svc.accounts.GetMany(ctx, ids)
}

// Create adds an account on behalf of staff: it is verified immediately and
// never goes through the email confirmation flow.
func (svc *Service) Create(ctx context.Context, params RegisterParams) (*store.Account, error) {
	acct, _, err := svc.Register(ctx, params)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	acct.VerifiedAt = &now
	acct.Verification = ""
	if err := svc.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// UpdateParams are the fields accepted on account update. Nil pointers leave
// the stored value untouched.
type UpdateParams struct {
	Email        *string
	Password     *string
	FirstName    *string
	LastName     *string
	Avatar       *string
	Telephone    *string
	Cellphone    *string
	Street       *string
	StreetNumber *string
	PostalCode   *string
	Birthday     *string
	CPF          *string
	Role         *string
}

// Update applies a partial update to an account.
func (svc *Service) Update(ctx context.Context, id string, params UpdateParams) (*store.Account, error) {
	acct, err := svc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyString(&acct.Email, params.Email)
	applyString(&acct.FirstName, params.FirstName)
	applyString(&acct.LastName, params.LastName)
	applyString(&acct.Avatar, params.Avatar)
	applyString(&acct.Telephone, params.Telephone)
	applyString(&acct.Cellphone, params.Cellphone)
	applyString(&acct.Street, params.Street)
	applyString(&acct.StreetNumber, params.StreetNumber)
	applyString(&acct.PostalCode, params.PostalCode)
	applyString(&acct.Birthday, params.Birthday)
	applyString(&acct.CPF, params.CPF)
	applyString(&acct.Role, params.Role)

	if params.Password != nil && *params.Password != "" {
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		acct.PasswordHash = hash
	}

	if err := svc.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Delete removes an account.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.accounts.Delete(ctx, id)
}

func (svc *Service) issueTokens(ctx context.Context, acct *store.Account, ip string) (*AuthResult, error) {
	access, err := svc.tokens.Issue(acct.ID, acct.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := auth.NewRandomToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := svc.refresh.Create(ctx, &store.RefreshToken{
		Token:       refresh,
		AccountID:   acct.ID,
		ExpiresAt:   now.Add(svc.refreshTTL),
		CreatedAt:   now,
		CreatedByIP: ip,
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		Account:      acct,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
