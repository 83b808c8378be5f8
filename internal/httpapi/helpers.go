package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vetdesk/vetdesk/internal/accounts"
	"github.com/vetdesk/vetdesk/internal/schema"
	"github.com/vetdesk/vetdesk/internal/store"
	"github.com/vetdesk/vetdesk/internal/tracing"
)

const refreshCookieName = "refreshToken"

// maxBodyBytes caps request bodies; clinic payloads are small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps service errors onto HTTP statuses.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := tracing.LoggerFromContext(r.Context(), a.logger)

	switch {
	case errors.Is(err, store.ErrNotFound):
		a.writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, accounts.ErrEmailTaken):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, accounts.ErrInvalidToken):
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}

// decodeValid reads the body, validates it against the route's schema and
// decodes it into dst.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, v *schema.Validator, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Failed to read request body"})
		return false
	}

	if err := v.Validate(body); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Malformed request body"})
		return false
	}
	return true
}

// setRefreshCookie stores the rotating refresh token in an HTTP-only cookie,
// the only place the client ever holds it.
func (a *API) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
