package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ShutdownGrace)
	assert.Equal(t, "vetdesk", cfg.Auth.Issuer)
	assert.Equal(t, 15, cfg.Auth.AccessTTLMin)
	assert.Equal(t, 30, cfg.Chat.PingInterval)
	assert.Equal(t, 10, cfg.Chat.WriteTimeout)
	assert.Equal(t, 120, cfg.Chat.EventsPerMinute)
	assert.False(t, cfg.Chat.RequireToken)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.Equal(t, "@hourly", cfg.Maintenance.TokenPurgeSchedule)
	assert.Equal(t, "@daily", cfg.Maintenance.RetentionSchedule)
	assert.Equal(t, 0, cfg.Maintenance.MessageRetentionDays)
}

func TestConfigString(t *testing.T) {
	t.Run("masks jwt secret", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "super-secret-signing-key"

		s := cfg.String()
		assert.NotContains(t, s, "super-secret-signing-key")
		assert.Contains(t, s, "***")
	})

	t.Run("empty secret stays empty", func(t *testing.T) {
		cfg := DefaultConfig()

		s := cfg.String()
		assert.NotContains(t, s, "***")
	})
}
