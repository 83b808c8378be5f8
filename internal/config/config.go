package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main vetdesk configuration
type Config struct {
	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Database
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Auth
	Auth AuthConfig `json:"auth" mapstructure:"auth"`

	// Chat
	Chat ChatConfig `json:"chat" mapstructure:"chat"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Maintenance
	Maintenance MaintenanceConfig `json:"maintenance" mapstructure:"maintenance"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string `json:"host" mapstructure:"host"`
	Port          int    `json:"port" mapstructure:"port"`
	SecureCookies bool   `json:"secure_cookies" mapstructure:"secure_cookies"`
	ShutdownGrace int    `json:"shutdown_grace" mapstructure:"shutdown_grace"` // seconds
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret    string `json:"jwt_secret" mapstructure:"jwt_secret"`
	Issuer       string `json:"issuer" mapstructure:"issuer"`
	AccessTTLMin int    `json:"access_ttl_min" mapstructure:"access_ttl_min"` // minutes
}

// ChatConfig holds websocket chat configuration
type ChatConfig struct {
	PingInterval    int  `json:"ping_interval" mapstructure:"ping_interval"` // seconds
	WriteTimeout    int  `json:"write_timeout" mapstructure:"write_timeout"` // seconds
	EventsPerMinute int  `json:"events_per_minute" mapstructure:"events_per_minute"`
	RequireToken    bool `json:"require_token" mapstructure:"require_token"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MaintenanceConfig holds the cron schedules for background cleanup
type MaintenanceConfig struct {
	TokenPurgeSchedule   string `json:"token_purge_schedule" mapstructure:"token_purge_schedule"`
	ResetPurgeSchedule   string `json:"reset_purge_schedule" mapstructure:"reset_purge_schedule"`
	RetentionSchedule    string `json:"retention_schedule" mapstructure:"retention_schedule"`
	MessageRetentionDays int    `json:"message_retention_days" mapstructure:"message_retention_days"` // 0 keeps forever
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          4000,
			SecureCookies: false,
			ShutdownGrace: 10,
		},
		Database: DatabaseConfig{
			Path: "",
		},
		Auth: AuthConfig{
			Issuer:       "vetdesk",
			AccessTTLMin: 15,
		},
		Chat: ChatConfig{
			PingInterval:    30,
			WriteTimeout:    10,
			EventsPerMinute: 120,
			RequireToken:    false,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Maintenance: MaintenanceConfig{
			TokenPurgeSchedule:   "@hourly",
			ResetPurgeSchedule:   "@hourly",
			RetentionSchedule:    "@daily",
			MessageRetentionDays: 0,
		},
		DataDir: "",
	}
}

// String returns a JSON representation with the JWT secret masked
func (c *Config) String() string {
	clone := *c
	if clone.Auth.JWTSecret != "" {
		clone.Auth.JWTSecret = "***"
	}
	data, err := json.MarshalIndent(&clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
