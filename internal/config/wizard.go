package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
}

// NewWizard creates a new configuration wizard
func NewWizard() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run runs the interactive configuration wizard
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("=== Vetdesk Configuration Wizard ===")
	fmt.Println()

	cfg := DefaultConfig()
	validator := NewValidator()

	// JWT secret
	for {
		fmt.Print("JWT signing secret (at least 16 characters): ")
		secret, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if err := validator.ValidateJWTSecret(secret); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.Auth.JWTSecret = secret
		break
	}

	fmt.Println()

	// HTTP port
	for {
		fmt.Printf("HTTP port [%d]: ", cfg.Server.Port)
		raw, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if raw == "" {
			break
		}

		port, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Println("Error: port must be a number")
			continue
		}
		if err := validator.ValidatePort(port); err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		cfg.Server.Port = port
		break
	}

	fmt.Println()

	// Database path
	fmt.Print("Database path (press Enter for the default under ~/.vetdesk): ")
	path, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.Database.Path = path
	}

	fmt.Println()

	// Chat token requirement
	fmt.Print("Require access tokens on chat connections? (y/n) [n]: ")
	require, err := w.readLine()
	if err != nil {
		return nil, err
	}
	cfg.Chat.RequireToken = strings.ToLower(require) == "y"

	fmt.Println()

	// Log level
	fmt.Println("Logging:")
	fmt.Print("Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Printf("Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Println()
	fmt.Println("Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
