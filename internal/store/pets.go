package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Pet is a patient record.
type Pet struct {
	ID           string   `json:"id"`
	Avatar       string   `json:"avatar,omitempty"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Breed        string   `json:"breed"`
	Color        string   `json:"color"`
	Status       string   `json:"status,omitempty"`
	TutorID      string   `json:"tutorId,omitempty"`
	TreatmentIDs []string `json:"treatments"`
	QRCode       string   `json:"qrCode,omitempty"`
}

// Pets is the pet repository.
type Pets struct {
	store *Store
}

// Pets returns the pet repository.
func (s *Store) Pets() *Pets {
	return &Pets{store: s}
}

// Create inserts a new pet.
func (r *Pets) Create(ctx context.Context, pet *Pet) error {
	treatments, err := marshalStrings(pet.TreatmentIDs)
	if err != nil {
		return err
	}
	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO pets (id, avatar, name, type, breed, color, status, tutor_id, treatment_ids, qr_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pet.ID, pet.Avatar, pet.Name, pet.Type, pet.Breed, pet.Color,
		pet.Status, pet.TutorID, treatments, pet.QRCode)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

// Update rewrites every mutable field of a pet.
func (r *Pets) Update(ctx context.Context, pet *Pet) error {
	treatments, err := marshalStrings(pet.TreatmentIDs)
	if err != nil {
		return err
	}
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE pets SET avatar = ?, name = ?, type = ?, breed = ?, color = ?,
		 status = ?, tutor_id = ?, treatment_ids = ?, qr_code = ? WHERE id = ?`,
		pet.Avatar, pet.Name, pet.Type, pet.Breed, pet.Color,
		pet.Status, pet.TutorID, treatments, pet.QRCode, pet.ID)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}
	return requireRow(res)
}

// Delete removes a pet record.
func (r *Pets) Delete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	return requireRow(res)
}

// GetByID fetches one pet.
func (r *Pets) GetByID(ctx context.Context, id string) (*Pet, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT id, avatar, name, type, breed, color, status, tutor_id, treatment_ids, qr_code
		 FROM pets WHERE id = ?`, id)
	return scanPet(row)
}

// List returns every pet.
func (r *Pets) List(ctx context.Context) ([]*Pet, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id, avatar, name, type, breed, color, status, tutor_id, treatment_ids, qr_code
		 FROM pets ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	pets := make([]*Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

// ListByTutor returns the pets owned by one tutor.
func (r *Pets) ListByTutor(ctx context.Context, tutorID string) ([]*Pet, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT id, avatar, name, type, breed, color, status, tutor_id, treatment_ids, qr_code
		 FROM pets WHERE tutor_id = ? ORDER BY name ASC`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets by tutor: %w", err)
	}
	defer rows.Close()

	pets := make([]*Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

func scanPet(row rowScanner) (*Pet, error) {
	var pet Pet
	var treatments string

	err := row.Scan(&pet.ID, &pet.Avatar, &pet.Name, &pet.Type, &pet.Breed,
		&pet.Color, &pet.Status, &pet.TutorID, &treatments, &pet.QRCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pet: %w", err)
	}

	if err := json.Unmarshal([]byte(treatments), &pet.TreatmentIDs); err != nil {
		return nil, fmt.Errorf("failed to decode pet treatments: %w", err)
	}
	return &pet, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}
