// Package treatments implements treatment episode management. Creating a
// treatment also links it to the pet's record; closing one stamps the
// discharge.
package treatments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/observability"
	"github.com/vetdesk/vetdesk/internal/pets"
	"github.com/vetdesk/vetdesk/internal/store"
)

// Treatment statuses.
const (
	StatusOpen       = "open"
	StatusDischarged = "discharged"
)

// Service provides treatment operations.
type Service struct {
	treatments *store.Treatments
	pets       *pets.Service
	logger     zerolog.Logger
}

// NewService creates a treatment service.
func NewService(s *store.Store, petService *pets.Service, logger zerolog.Logger) *Service {
	return &Service{
		treatments: s.Treatments(),
		pets:       petService,
		logger:     logger,
	}
}

// GetAll returns every treatment.
func (svc *Service) GetAll(ctx context.Context) ([]*store.Treatment, error) {
	return svc.treatments.List(ctx)
}

// GetByID returns one treatment.
func (svc *Service) GetByID(ctx context.Context, id string) (*store.Treatment, error) {
	return svc.treatments.GetByID(ctx, id)
}

// GetMany returns the treatments matching the given IDs.
func (svc *Service) GetMany(ctx context.Context, ids []string) ([]*store.Treatment, error) {
	return svc.treatments.GetMany(ctx, ids)
}

// Create opens a treatment and links it to the pet. A failure to link is
// logged but does not undo the treatment: the record is authoritative, the
// pet's treatment list is a denormalized convenience.
func (svc *Service) Create(ctx context.Context, tr *store.Treatment) (string, error) {
	if tr.ID == "" {
		tr.ID = uuid.New().String()
	}
	if tr.Status == "" {
		tr.Status = StatusOpen
	}
	if tr.EnterDate == "" {
		tr.EnterDate = time.Now().UTC().Format(time.RFC3339)
	}

	if err := svc.treatments.Create(ctx, tr); err != nil {
		return "", err
	}

	if err := svc.pets.AddTreatment(ctx, tr.PetID, tr.ID); err != nil {
		svc.logger.Error().
			Err(err).
			Str("treatmentId", tr.ID).
			Str("petId", tr.PetID).
			Msg("Failed to link treatment to pet")
	}

	observability.RecordRecordAudit(ctx, "treatment_opened", tr.VetID, map[string]interface{}{
		"treatmentId": tr.ID,
		"petId":       tr.PetID,
	})
	return tr.ID, nil
}

// Close discharges a treatment, stamping the discharge date.
func (svc *Service) Close(ctx context.Context, id string) (*store.Treatment, error) {
	tr, err := svc.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tr.Status = StatusDischarged
	tr.DischargeDate = time.Now().UTC().Format(time.RFC3339)

	if err := svc.treatments.Update(ctx, tr); err != nil {
		return nil, err
	}

	observability.RecordRecordAudit(ctx, "treatment_closed", tr.VetID, map[string]interface{}{
		"treatmentId": tr.ID,
		"petId":       tr.PetID,
	})
	return tr, nil
}

// UpdateParams are the fields accepted on treatment update. RawMessage
// fields replace the stored JSON wholesale when present.
type UpdateParams struct {
	Status                *string
	EnterDate             *string
	DischargeDate         *string
	Medications           json.RawMessage
	Food                  json.RawMessage
	ConclusiveReport      *string
	ConclusiveReportShort *string
	DischargeCare         *string
	ClinicEvo             json.RawMessage
	ClinicEvoResume       *int
}

// Update applies a partial update to a treatment, including nested clinic
// evolution payloads.
func (svc *Service) Update(ctx context.Context, id string, params UpdateParams) (*store.Treatment, error) {
	tr, err := svc.treatments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Status != nil {
		tr.Status = *params.Status
	}
	if params.EnterDate != nil {
		tr.EnterDate = *params.EnterDate
	}
	if params.DischargeDate != nil {
		tr.DischargeDate = *params.DischargeDate
	}
	if params.Medications != nil {
		tr.Medications = params.Medications
	}
	if params.Food != nil {
		tr.Food = params.Food
	}
	if params.ConclusiveReport != nil {
		tr.ConclusiveReport = *params.ConclusiveReport
	}
	if params.ConclusiveReportShort != nil {
		tr.ConclusiveReportShort = *params.ConclusiveReportShort
	}
	if params.DischargeCare != nil {
		tr.DischargeCare = *params.DischargeCare
	}
	if params.ClinicEvo != nil {
		tr.ClinicEvo = params.ClinicEvo
	}
	if params.ClinicEvoResume != nil {
		tr.ClinicEvoResume = *params.ClinicEvoResume
	}

	if err := svc.treatments.Update(ctx, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// Delete removes a treatment.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.treatments.Delete(ctx, id)
}

// DeleteMany removes a batch of treatments.
func (svc *Service) DeleteMany(ctx context.Context, ids []string) error {
	return svc.treatments.DeleteMany(ctx, ids)
}
