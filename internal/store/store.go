// Package store is the SQLite persistence layer for clinic records and
// conversation history. One Store owns the database handle; repositories for
// each record type hang off it.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// timeFormat is the timestamp layout for every stored time column. It always
// writes nine fractional digits so the strings collate in time order;
// RFC3339Nano trims trailing zeros and does not.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Store wraps the clinic database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the clinic database at path and ensures
// the schema exists.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Clinic database opened")
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			telephone TEXT NOT NULL DEFAULT '',
			cellphone TEXT NOT NULL DEFAULT '',
			street TEXT NOT NULL DEFAULT '',
			street_number TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			birthday TEXT NOT NULL DEFAULT '',
			cpf TEXT NOT NULL DEFAULT '',
			accept_terms INTEGER NOT NULL DEFAULT 0,
			role TEXT NOT NULL,
			verification_token TEXT NOT NULL DEFAULT '',
			verified_at TEXT,
			reset_token TEXT NOT NULL DEFAULT '',
			reset_expires_at TEXT,
			password_reset_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			created_by_ip TEXT NOT NULL DEFAULT '',
			revoked_at TEXT,
			revoked_by_ip TEXT NOT NULL DEFAULT '',
			replaced_by TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS pets (
			id TEXT PRIMARY KEY,
			avatar TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			breed TEXT NOT NULL,
			color TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			tutor_id TEXT NOT NULL DEFAULT '',
			treatment_ids TEXT NOT NULL DEFAULT '[]',
			qr_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS treatments (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			enter_date TEXT NOT NULL,
			discharge_date TEXT NOT NULL DEFAULT '',
			medications TEXT NOT NULL DEFAULT '[]',
			food TEXT NOT NULL DEFAULT '[]',
			conclusive_report TEXT NOT NULL DEFAULT '',
			conclusive_report_short TEXT NOT NULL DEFAULT '',
			discharge_care TEXT NOT NULL DEFAULT '',
			clinic_evo TEXT NOT NULL DEFAULT '{}',
			clinic_evo_resume INTEGER NOT NULL DEFAULT 0,
			pet_id TEXT NOT NULL,
			pet_name TEXT NOT NULL,
			vet_id TEXT NOT NULL DEFAULT '',
			vet_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pair TEXT NOT NULL,
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			content TEXT NOT NULL,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair_date ON messages(pair, date)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_account ON refresh_tokens(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pets_tutor ON pets(tutor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_treatments_pet ON treatments(pet_id)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
