// Package httpapi is the REST surface of the clinic backend plus the
// websocket mount point for the chat engine.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/accounts"
	"github.com/vetdesk/vetdesk/internal/auth"
	"github.com/vetdesk/vetdesk/internal/observability"
	"github.com/vetdesk/vetdesk/internal/pets"
	"github.com/vetdesk/vetdesk/internal/tracing"
	"github.com/vetdesk/vetdesk/internal/treatments"
	"github.com/vetdesk/vetdesk/pkg/chat"
)

// API wires the services into an HTTP handler.
type API struct {
	accounts   *accounts.Service
	pets       *pets.Service
	treatments *treatments.Service
	tokens     *auth.TokenManager
	chat       *chat.Server
	logger     zerolog.Logger

	secureCookies bool
}

// Config holds API dependencies.
type Config struct {
	Accounts      *accounts.Service
	Pets          *pets.Service
	Treatments    *treatments.Service
	Tokens        *auth.TokenManager
	Chat          *chat.Server
	Logger        zerolog.Logger
	SecureCookies bool
}

// New creates the API.
func New(cfg Config) *API {
	return &API{
		accounts:      cfg.Accounts,
		pets:          cfg.Pets,
		treatments:    cfg.Treatments,
		tokens:        cfg.Tokens,
		chat:          cfg.Chat,
		logger:        cfg.Logger,
		secureCookies: cfg.SecureCookies,
	}
}

// Handler builds the route tree.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(a.traceMiddleware)
	r.Use(a.metricsMiddleware)
	r.Use(chimiddleware.Recoverer)

	staff := []string{auth.RoleAdmin, auth.RoleVet, auth.RoleNurse}

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/authenticate", a.handleAuthenticate)
		r.Post("/refresh-token", a.handleRefreshToken)
		r.Post("/register", a.handleRegister)
		r.Post("/verify-email", a.handleVerifyEmail)
		r.Post("/forgot-password", a.handleForgotPassword)
		r.Post("/validate-reset-token", a.handleValidateResetToken)
		r.Post("/reset-password", a.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens))
			r.Post("/revoke-token", a.handleRevokeToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, staff...))
			r.Get("/", a.handleListAccounts)
			r.Get("/{id}", a.handleGetAccount)
			r.Get("/many/{ids}", a.handleGetManyAccounts)
			r.Put("/{id}", a.handleUpdateAccount)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, auth.RoleAdmin, auth.RoleVet))
			r.Post("/", a.handleCreateAccount)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, auth.RoleAdmin))
			r.Delete("/{id}", a.handleDeleteAccount)
		})
	})

	r.Route("/pets", func(r chi.Router) {
		r.Use(auth.Authorize(a.tokens))
		r.Get("/", a.handleListPets)
		r.Get("/{id}", a.handleGetPet)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, auth.RoleAdmin, auth.RoleVet))
			r.Post("/", a.handleCreatePet)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, staff...))
			r.Put("/{id}", a.handleUpdatePet)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Authorize(a.tokens, auth.RoleAdmin))
			r.Delete("/{id}", a.handleDeletePet)
		})
	})

	r.Route("/treatments", func(r chi.Router) {
		r.Use(auth.Authorize(a.tokens, staff...))
		r.Get("/", a.handleListTreatments)
		r.Get("/{id}", a.handleGetTreatment)
		r.Get("/many/{ids}", a.handleGetManyTreatments)
		r.Post("/", a.handleCreateTreatment)
		r.Put("/close/{id}", a.handleCloseTreatment)
		r.Put("/{id}", a.handleUpdateTreatment)
		r.Delete("/many/{ids}", a.handleDeleteManyTreatments)
		r.Delete("/{id}", a.handleDeleteTreatment)
	})

	if a.chat != nil {
		r.Get("/ws", a.chat.HandleWS)
	}

	r.Handle("/metrics", observability.MetricsHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// traceMiddleware stamps every request with a trace ID and a scoped logger.
func (a *API) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = tracing.NewTraceID()
		}
		ctx := tracing.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-Id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// metricsMiddleware records request counts and durations per route pattern.
func (a *API) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		statusClass := http.StatusText(ww.Status())
		switch {
		case ww.Status() >= 500:
			statusClass = "5xx"
		case ww.Status() >= 400:
			statusClass = "4xx"
		default:
			statusClass = "2xx"
		}
		observability.RecordHTTPRequest(route, statusClass, time.Since(start))
	})
}
