package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vetdesk/vetdesk/internal/accounts"
	"github.com/vetdesk/vetdesk/internal/auth"
	"github.com/vetdesk/vetdesk/internal/store"
)

// refreshCookieTTL matches the refresh token lifetime in the account service.
const refreshCookieTTL = 7 * 24 * time.Hour

type messageResponse struct {
	Message string `json:"message"`
}

// authResponse is the account plus its short-lived access token. The refresh
// token travels only in the cookie.
type authResponse struct {
	*store.Account
	JWTToken string `json:"jwtToken"`
}

func (a *API) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !a.decodeValid(w, r, authenticateSchema, &req) {
		return
	}

	result, err := a.accounts.Authenticate(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setRefreshCookie(w, result.RefreshToken, time.Now().Add(refreshCookieTTL))
	a.writeJSON(w, http.StatusOK, authResponse{Account: result.Account, JWTToken: result.AccessToken})
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r, "")
	if token == "" {
		a.writeError(w, r, accounts.ErrInvalidToken)
		return
	}

	result, err := a.accounts.Refresh(r.Context(), token, r.RemoteAddr)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.setRefreshCookie(w, result.RefreshToken, time.Now().Add(refreshCookieTTL))
	a.writeJSON(w, http.StatusOK, authResponse{Account: result.Account, JWTToken: result.AccessToken})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		registerBody
		ConfirmPassword string `json:"confirmPassword"`
		AcceptTerms     bool   `json:"acceptTerms"`
	}
	if !a.decodeValid(w, r, registerSchema, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Passwords do not match"})
		return
	}

	params := req.registerBody.params()
	params.AcceptTerms = req.AcceptTerms
	params.Role = ""

	if _, _, err := a.accounts.Register(r.Context(), params); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{
		Message: "Registration successful, please check your email for verification instructions",
	})
}

func (a *API) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !a.decodeValid(w, r, verifyEmailSchema, &req) {
		return
	}

	if err := a.accounts.VerifyEmail(r.Context(), req.Token); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Verification successful, you can now login"})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !a.decodeValid(w, r, forgotPasswordSchema, &req) {
		return
	}

	if _, err := a.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{
		Message: "Please check your email for password reset instructions",
	})
}

func (a *API) handleValidateResetToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !a.decodeValid(w, r, validateResetTokenSchema, &req) {
		return
	}

	if err := a.accounts.ValidateResetToken(r.Context(), req.Token); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Token is valid"})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !a.decodeValid(w, r, resetPasswordSchema, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Passwords do not match"})
		return
	}

	if err := a.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successful, you can now login"})
}

// handleRevokeToken revokes a refresh token. Accounts may only revoke their
// own tokens; admins may revoke any.
func (a *API) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !a.decodeValid(w, r, revokeTokenSchema, &req) {
		return
	}

	token := refreshTokenFromRequest(r, req.Token)
	if token == "" {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Token is required"})
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if claims.Role != auth.RoleAdmin {
		owns, err := a.accounts.OwnsToken(r.Context(), token, claims.AccountID)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if !owns {
			a.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			return
		}
	}

	if err := a.accounts.Revoke(r.Context(), token, r.RemoteAddr); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Token revoked"})
}

func (a *API) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := a.accounts.GetAll(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *API) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := a.accounts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, acct)
}

func (a *API) handleGetManyAccounts(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(chi.URLParam(r, "ids"))
	list, err := a.accounts.GetMany(r.Context(), ids)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *API) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		registerBody
		Role string `json:"role"`
	}
	if !a.decodeValid(w, r, createAccountSchema, &req) {
		return
	}

	params := req.registerBody.params()
	params.Role = req.Role
	params.AcceptTerms = true

	acct, err := a.accounts.Create(r.Context(), params)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, acct)
}

func (a *API) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        *string `json:"email"`
		Password     *string `json:"password"`
		FirstName    *string `json:"firstName"`
		LastName     *string `json:"lastName"`
		Avatar       *string `json:"avatar"`
		Telephone    *string `json:"telephone"`
		Cellphone    *string `json:"cellphone"`
		Street       *string `json:"street"`
		StreetNumber *string `json:"streetNumber"`
		PostalCode   *string `json:"postalCode"`
		Birthday     *string `json:"birthday"`
		CPF          *string `json:"cpf"`
		Role         *string `json:"role"`
	}
	if !a.decodeValid(w, r, updateAccountSchema, &req) {
		return
	}

	acct, err := a.accounts.Update(r.Context(), chi.URLParam(r, "id"), accounts.UpdateParams{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Avatar:       req.Avatar,
		Telephone:    req.Telephone,
		Cellphone:    req.Cellphone,
		Street:       req.Street,
		StreetNumber: req.StreetNumber,
		PostalCode:   req.PostalCode,
		Birthday:     req.Birthday,
		CPF:          req.CPF,
		Role:         req.Role,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, acct)
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := a.accounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}

// registerBody is the shared shape of the registration and staff-create
// payloads.
type registerBody struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Avatar       string `json:"avatar"`
	Telephone    string `json:"telephone"`
	Cellphone    string `json:"cellphone"`
	Street       string `json:"street"`
	StreetNumber string `json:"streetNumber"`
	PostalCode   string `json:"postalCode"`
	Birthday     string `json:"birthday"`
	CPF          string `json:"cpf"`
}

func (b registerBody) params() accounts.RegisterParams {
	return accounts.RegisterParams{
		Email:        b.Email,
		Password:     b.Password,
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Avatar:       b.Avatar,
		Telephone:    b.Telephone,
		Cellphone:    b.Cellphone,
		Street:       b.Street,
		StreetNumber: b.StreetNumber,
		PostalCode:   b.PostalCode,
		Birthday:     b.Birthday,
		CPF:          b.CPF,
	}
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
