// Package daemon wires the clinic services together and runs them as one
// process: the SQLite store, the REST API, the websocket chat engine and the
// maintenance scheduler.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/vetdesk/vetdesk/internal/accounts"
	"github.com/vetdesk/vetdesk/internal/auth"
	"github.com/vetdesk/vetdesk/internal/config"
	"github.com/vetdesk/vetdesk/internal/httpapi"
	"github.com/vetdesk/vetdesk/internal/logger"
	"github.com/vetdesk/vetdesk/internal/maintenance"
	"github.com/vetdesk/vetdesk/internal/observability"
	"github.com/vetdesk/vetdesk/internal/pets"
	"github.com/vetdesk/vetdesk/internal/store"
	"github.com/vetdesk/vetdesk/internal/tracing"
	"github.com/vetdesk/vetdesk/internal/treatments"
	"github.com/vetdesk/vetdesk/pkg/chat"
)

// Status holds daemon runtime status
type Status struct {
	Running   bool
	Uptime    time.Duration
	StartTime time.Time
}

// Daemon represents the vetdesk daemon service
type Daemon struct {
	config *config.Config
	logger *logger.Logger

	// configPath is the file the running config was loaded from; the hot
	// reload watcher follows this same file
	configPath string

	// Storage
	store *store.Store

	// Services
	accountService   *accounts.Service
	petService       *pets.Service
	treatmentService *treatments.Service
	tokens           *auth.TokenManager
	chatServer       *chat.Server
	maintenanceSvc   *maintenance.Service

	// HTTP
	httpServer *http.Server

	// Internal
	lifecycle     *LifecycleManager
	configWatcher *config.Watcher

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// New creates a new daemon instance. configPath is the file cfg was loaded
// from; empty means the default location.
func New(cfg *config.Config, configPath string, log *logger.Logger) (*Daemon, error) {
	observability.EnsureRegistered()

	d := &Daemon{
		config:     cfg,
		configPath: configPath,
		logger:     log,
	}

	if err := d.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initializeServices() error {
	zl := d.logger.GetZerolog()

	if err := observability.InitAuditLogger(filepath.Join(d.config.DataDir, "audit.log")); err != nil {
		zl.Warn().Err(err).Msg("Failed to open audit log, auditing to stderr")
	}

	db, err := store.Open(d.config.Database.Path, zl.With().Str("component", "store").Logger())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	d.store = db

	tokens, err := auth.NewTokenManager(
		d.config.Auth.JWTSecret,
		d.config.Auth.Issuer,
		time.Duration(d.config.Auth.AccessTTLMin)*time.Minute,
	)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	d.tokens = tokens

	d.accountService = accounts.NewService(db, tokens, zl.With().Str("component", "accounts").Logger())
	d.petService = pets.NewService(db, zl.With().Str("component", "pets").Logger())
	d.treatmentService = treatments.NewService(db, d.petService, zl.With().Str("component", "treatments").Logger())

	var verifier chat.TokenVerifier
	if d.config.Chat.RequireToken {
		verifier = func(token string) error {
			_, err := tokens.Verify(token)
			return err
		}
	}

	chatServer, err := chat.NewServer(chat.Config{
		Store:           db.Conversations(),
		TokenVerifier:   verifier,
		Logger:          zl.With().Str("component", "chat").Logger(),
		PingInterval:    time.Duration(d.config.Chat.PingInterval) * time.Second,
		WriteTimeout:    time.Duration(d.config.Chat.WriteTimeout) * time.Second,
		EventsPerMinute: d.config.Chat.EventsPerMinute,
	})
	if err != nil {
		return fmt.Errorf("failed to create chat server: %w", err)
	}
	d.chatServer = chatServer

	maintenanceSvc, err := maintenance.NewService(db, d.config.Maintenance, zl.With().Str("component", "maintenance").Logger())
	if err != nil {
		return fmt.Errorf("failed to create maintenance service: %w", err)
	}
	d.maintenanceSvc = maintenanceSvc

	api := httpapi.New(httpapi.Config{
		Accounts:      d.accountService,
		Pets:          d.petService,
		Treatments:    d.treatmentService,
		Tokens:        tokens,
		Chat:          chatServer,
		Logger:        zl.With().Str("component", "http").Logger(),
		SecureCookies: d.config.Server.SecureCookies,
	})

	d.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", d.config.Server.Host, d.config.Server.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	traceID := tracing.NewTraceID()
	logger := d.logger.GetZerolog().With().Str("trace_id", traceID).Logger()
	logger.Info().Msg("Starting vetdesk daemon")

	if err := d.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle manager: %w", err)
	}

	d.maintenanceSvc.Start()

	if watcher, err := config.NewWatcher(config.NewLoader(d.configPath), d.handleConfigReload, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to create config watcher, hot reload disabled")
	} else if err := watcher.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start config watcher, hot reload disabled")
	} else {
		d.configWatcher = watcher
	}

	go func() {
		logger.Info().Str("addr", d.httpServer.Addr).Msg("HTTP server listening")
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().Msg("Daemon started successfully")
	return nil
}

// Stop stops the daemon gracefully
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not running")
	}
	d.running = false
	d.mu.Unlock()

	traceID := tracing.NewTraceID()
	logger := d.logger.GetZerolog().With().Str("trace_id", traceID).Logger()
	logger.Info().Msg("Stopping vetdesk daemon")

	grace := time.Duration(d.config.Server.ShutdownGrace) * time.Second

	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop config watcher")
		}
	}

	// Stop accepting HTTP traffic before closing chat sessions so no new
	// websocket upgrades race the shutdown
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	if err := d.httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	d.chatServer.Stop(grace)
	logger.Info().Msg("Chat server stopped")

	d.maintenanceSvc.Stop()

	if err := d.store.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close store")
	}

	if err := d.lifecycle.Stop(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop lifecycle manager")
	}

	if err := observability.GetAuditLogger().Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close audit logger")
	}

	logger.Info().Msg("Daemon stopped successfully")
	return nil
}

// handleConfigReload applies runtime-adjustable settings from a fresh config.
// Settings that require a restart (port, database path) are ignored.
func (d *Daemon) handleConfigReload(cfg *config.Config) {
	d.mu.Lock()
	d.config.Logging = cfg.Logging
	d.config.Chat = cfg.Chat
	d.config.Maintenance = cfg.Maintenance
	d.mu.Unlock()

	d.logger.Info().Msg("Applied reloaded configuration")
}

// Status returns the daemon status
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status := Status{
		Running: d.running,
	}

	if d.running {
		status.Uptime = time.Since(d.startTime)
		status.StartTime = d.startTime
	}

	return status
}

// Wait blocks until the process receives SIGINT or SIGTERM, then stops the
// daemon
func (d *Daemon) Wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	d.logger.Info().Str("signal", sig.String()).Msg("Received signal")

	if err := d.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to stop daemon")
	}
}

// GetConfig returns the daemon configuration
func (d *Daemon) GetConfig() *config.Config {
	return d.config
}

// GetLogger returns the daemon logger
func (d *Daemon) GetLogger() *logger.Logger {
	return d.logger
}

// GetStore returns the daemon store
func (d *Daemon) GetStore() *store.Store {
	return d.store
}

// GetChatServer returns the chat server
func (d *Daemon) GetChatServer() *chat.Server {
	return d.chatServer
}
