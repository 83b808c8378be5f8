package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values
type Validator struct {
	schedules cron.Parser
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		schedules: cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
	}
}

// Validate checks the whole configuration and returns the first problem found
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		return err
	}
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		return err
	}
	if err := v.ValidateJWTSecret(cfg.Auth.JWTSecret); err != nil {
		return err
	}
	if cfg.Auth.AccessTTLMin <= 0 {
		return fmt.Errorf("auth access TTL must be positive, got %d", cfg.Auth.AccessTTLMin)
	}
	if cfg.Chat.EventsPerMinute < 0 {
		return fmt.Errorf("chat events per minute must not be negative, got %d", cfg.Chat.EventsPerMinute)
	}
	if cfg.Maintenance.MessageRetentionDays < 0 {
		return fmt.Errorf("message retention days must not be negative, got %d", cfg.Maintenance.MessageRetentionDays)
	}
	for _, schedule := range []string{
		cfg.Maintenance.TokenPurgeSchedule,
		cfg.Maintenance.ResetPurgeSchedule,
		cfg.Maintenance.RetentionSchedule,
	} {
		if err := v.ValidateSchedule(schedule); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePort validates a TCP port number
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateJWTSecret validates the token signing secret
func (v *Validator) ValidateJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("auth JWT secret cannot be empty")
	}
	if len(secret) < 16 {
		return fmt.Errorf("auth JWT secret must be at least 16 characters")
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression
func (v *Validator) ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("maintenance schedule cannot be empty")
	}
	if _, err := v.schedules.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}
