package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "a-long-enough-test-secret"

		err := NewValidator().Validate(cfg)
		assert.NoError(t, err)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := DefaultConfig()

		err := NewValidator().Validate(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret")
	})

	t.Run("bad schedule", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "a-long-enough-test-secret"
		cfg.Maintenance.TokenPurgeSchedule = "not a schedule"

		err := NewValidator().Validate(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cron schedule")
	})

	t.Run("negative retention", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Auth.JWTSecret = "a-long-enough-test-secret"
		cfg.Maintenance.MessageRetentionDays = -1

		err := NewValidator().Validate(cfg)
		assert.Error(t, err)
	})
}

func TestValidatePort(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidatePort(4000))
	assert.NoError(t, v.ValidatePort(1))
	assert.NoError(t, v.ValidatePort(65535))
	assert.Error(t, v.ValidatePort(0))
	assert.Error(t, v.ValidatePort(-1))
	assert.Error(t, v.ValidatePort(70000))
}

func TestValidateJWTSecret(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateJWTSecret("sixteen-characters-or-more"))
	assert.Error(t, v.ValidateJWTSecret(""))
	assert.Error(t, v.ValidateJWTSecret("short"))
}

func TestValidateSchedule(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSchedule("@hourly"))
	assert.NoError(t, v.ValidateSchedule("@daily"))
	assert.NoError(t, v.ValidateSchedule("0 3 * * *"))
	assert.Error(t, v.ValidateSchedule(""))
	assert.Error(t, v.ValidateSchedule("every day at noon"))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("verbose"))
	assert.Error(t, v.ValidateLogLevel(""))
}
