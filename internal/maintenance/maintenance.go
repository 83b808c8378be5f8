// Package maintenance runs the scheduled cleanup jobs: expired refresh
// tokens, stale password reset tokens and old chat messages.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/config"
	"github.com/vetdesk/vetdesk/internal/store"
)

// jobTimeout bounds each cleanup run.
const jobTimeout = time.Minute

// Service schedules and runs the cleanup jobs
type Service struct {
	cron   *cron.Cron
	store  *store.Store
	cfg    config.MaintenanceConfig
	logger zerolog.Logger
}

// NewService creates a maintenance service with jobs registered but not yet
// running
func NewService(s *store.Store, cfg config.MaintenanceConfig, logger zerolog.Logger) (*Service, error) {
	svc := &Service{
		cron:   cron.New(),
		store:  s,
		cfg:    cfg,
		logger: logger,
	}

	if _, err := svc.cron.AddFunc(cfg.TokenPurgeSchedule, svc.purgeRefreshTokens); err != nil {
		return nil, fmt.Errorf("invalid token purge schedule: %w", err)
	}
	if _, err := svc.cron.AddFunc(cfg.ResetPurgeSchedule, svc.purgeResetTokens); err != nil {
		return nil, fmt.Errorf("invalid reset purge schedule: %w", err)
	}
	if cfg.MessageRetentionDays > 0 {
		if _, err := svc.cron.AddFunc(cfg.RetentionSchedule, svc.purgeOldMessages); err != nil {
			return nil, fmt.Errorf("invalid retention schedule: %w", err)
		}
	}

	return svc, nil
}

// Start begins running the scheduled jobs
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("tokenPurge", s.cfg.TokenPurgeSchedule).
		Str("resetPurge", s.cfg.ResetPurgeSchedule).
		Int("retentionDays", s.cfg.MessageRetentionDays).
		Msg("Maintenance service started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance service stopped")
}

func (s *Service) purgeRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.store.RefreshTokens().PurgeExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to purge expired refresh tokens")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Purged expired refresh tokens")
	}
}

func (s *Service) purgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.store.Accounts().ClearExpiredResetTokens(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear expired reset tokens")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Cleared expired reset tokens")
	}
}

func (s *Service) purgeOldMessages() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.MessageRetentionDays)
	n, err := s.store.Conversations().PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to purge old messages")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Time("cutoff", cutoff).Msg("Purged old messages")
	}
}
