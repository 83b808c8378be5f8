package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Treatment is a clinical treatment episode for one pet.
type Treatment struct {
	ID                    string          `json:"id"`
	Status                string          `json:"status"`
	EnterDate             string          `json:"enterDate"`
	DischargeDate         string          `json:"dischargeDate,omitempty"`
	Medications           json.RawMessage `json:"medications"`
	Food                  json.RawMessage `json:"food"`
	ConclusiveReport      string          `json:"conclusiveReport,omitempty"`
	ConclusiveReportShort string          `json:"conclusiveReportShort,omitempty"`
	DischargeCare         string          `json:"dischargeCare,omitempty"`
	ClinicEvo             json.RawMessage `json:"clinicEvo"`
	ClinicEvoResume       int             `json:"clinicEvoResume,omitempty"`
	PetID                 string          `json:"petId"`
	PetName               string          `json:"petName"`
	VetID                 string          `json:"vetId,omitempty"`
	VetName               string          `json:"vetName,omitempty"`
}

// Treatments is the treatment repository.
type Treatments struct {
	store *Store
}

// Treatments returns the treatment repository.
func (s *Store) Treatments() *Treatments {
	return &Treatments{store: s}
}

const treatmentColumns = `id, status, enter_date, discharge_date, medications, food,
	conclusive_report, conclusive_report_short, discharge_care, clinic_evo,
	clinic_evo_resume, pet_id, pet_name, vet_id, vet_name`

// Create inserts a new treatment.
func (r *Treatments) Create(ctx context.Context, tr *Treatment) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO treatments (`+treatmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.Status, tr.EnterDate, tr.DischargeDate,
		rawOrDefault(tr.Medications, "[]"), rawOrDefault(tr.Food, "[]"),
		tr.ConclusiveReport, tr.ConclusiveReportShort, tr.DischargeCare,
		rawOrDefault(tr.ClinicEvo, "{}"), tr.ClinicEvoResume,
		tr.PetID, tr.PetName, tr.VetID, tr.VetName)
	if err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}

// Update rewrites every mutable field of a treatment.
func (r *Treatments) Update(ctx context.Context, tr *Treatment) error {
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE treatments SET status = ?, enter_date = ?, discharge_date = ?,
		 medications = ?, food = ?, conclusive_report = ?, conclusive_report_short = ?,
		 discharge_care = ?, clinic_evo = ?, clinic_evo_resume = ?, pet_id = ?,
		 pet_name = ?, vet_id = ?, vet_name = ? WHERE id = ?`,
		tr.Status, tr.EnterDate, tr.DischargeDate,
		rawOrDefault(tr.Medications, "[]"), rawOrDefault(tr.Food, "[]"),
		tr.ConclusiveReport, tr.ConclusiveReportShort, tr.DischargeCare,
		rawOrDefault(tr.ClinicEvo, "{}"), tr.ClinicEvoResume,
		tr.PetID, tr.PetName, tr.VetID, tr.VetName, tr.ID)
	if err != nil {
		return fmt.Errorf("failed to update treatment: %w", err)
	}
	return requireRow(res)
}

// Delete removes a treatment record.
func (r *Treatments) Delete(ctx context.Context, id string) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM treatments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete treatment: %w", err)
	}
	return requireRow(res)
}

// DeleteMany removes a batch of treatments.
func (r *Treatments) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.store.db.ExecContext(ctx,
		`DELETE FROM treatments WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete treatments: %w", err)
	}
	return nil
}

// GetByID fetches one treatment.
func (r *Treatments) GetByID(ctx context.Context, id string) (*Treatment, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+treatmentColumns+` FROM treatments WHERE id = ?`, id)
	return scanTreatment(row)
}

// GetMany returns the treatments matching the given IDs.
func (r *Treatments) GetMany(ctx context.Context, ids []string) ([]*Treatment, error) {
	if len(ids) == 0 {
		return []*Treatment{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+treatmentColumns+` FROM treatments WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatments: %w", err)
	}
	defer rows.Close()
	return collectTreatments(rows)
}

// List returns every treatment.
func (r *Treatments) List(ctx context.Context) ([]*Treatment, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+treatmentColumns+` FROM treatments ORDER BY enter_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	defer rows.Close()
	return collectTreatments(rows)
}

func scanTreatment(row rowScanner) (*Treatment, error) {
	var tr Treatment
	var medications, food, clinicEvo string

	err := row.Scan(&tr.ID, &tr.Status, &tr.EnterDate, &tr.DischargeDate,
		&medications, &food, &tr.ConclusiveReport, &tr.ConclusiveReportShort,
		&tr.DischargeCare, &clinicEvo, &tr.ClinicEvoResume,
		&tr.PetID, &tr.PetName, &tr.VetID, &tr.VetName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan treatment: %w", err)
	}

	tr.Medications = json.RawMessage(medications)
	tr.Food = json.RawMessage(food)
	tr.ClinicEvo = json.RawMessage(clinicEvo)
	return &tr, nil
}

func collectTreatments(rows *sql.Rows) ([]*Treatment, error) {
	treatments := make([]*Treatment, 0)
	for rows.Next() {
		tr, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		treatments = append(treatments, tr)
	}
	return treatments, rows.Err()
}

func rawOrDefault(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
