// Package pets implements patient record management.
package pets

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetdesk/vetdesk/internal/store"
)

// Service provides pet record operations.
type Service struct {
	pets   *store.Pets
	logger zerolog.Logger
}

// NewService creates a pet service.
func NewService(s *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		pets:   s.Pets(),
		logger: logger,
	}
}

// GetAll returns every pet.
func (svc *Service) GetAll(ctx context.Context) ([]*store.Pet, error) {
	return svc.pets.List(ctx)
}

// GetByID returns one pet.
func (svc *Service) GetByID(ctx context.Context, id string) (*store.Pet, error) {
	return svc.pets.GetByID(ctx, id)
}

// GetByTutor returns a tutor's pets.
func (svc *Service) GetByTutor(ctx context.Context, tutorID string) ([]*store.Pet, error) {
	return svc.pets.ListByTutor(ctx, tutorID)
}

// Create registers a new pet.
func (svc *Service) Create(ctx context.Context, pet *store.Pet) (*store.Pet, error) {
	if pet.ID == "" {
		pet.ID = uuid.New().String()
	}
	if err := svc.pets.Create(ctx, pet); err != nil {
		return nil, err
	}
	svc.logger.Info().Str("petId", pet.ID).Str("name", pet.Name).Msg("Pet registered")
	return pet, nil
}

// UpdateParams are the fields accepted on pet update.
type UpdateParams struct {
	Avatar  *string
	Name    *string
	Type    *string
	Breed   *string
	Color   *string
	Status  *string
	TutorID *string
	QRCode  *string
}

// Update applies a partial update to a pet.
func (svc *Service) Update(ctx context.Context, id string, params UpdateParams) (*store.Pet, error) {
	pet, err := svc.pets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(&pet.Avatar, params.Avatar)
	apply(&pet.Name, params.Name)
	apply(&pet.Type, params.Type)
	apply(&pet.Breed, params.Breed)
	apply(&pet.Color, params.Color)
	apply(&pet.Status, params.Status)
	apply(&pet.TutorID, params.TutorID)
	apply(&pet.QRCode, params.QRCode)

	if err := svc.pets.Update(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}

// AddTreatment links a treatment to a pet's record. Re-adding an existing
// treatment is a no-op.
func (svc *Service) AddTreatment(ctx context.Context, petID, treatmentID string) error {
	pet, err := svc.pets.GetByID(ctx, petID)
	if err != nil {
		return err
	}

	for _, existing := range pet.TreatmentIDs {
		if existing == treatmentID {
			return nil
		}
	}
	pet.TreatmentIDs = append(pet.TreatmentIDs, treatmentID)
	return svc.pets.Update(ctx, pet)
}

// Delete removes a pet record.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.pets.Delete(ctx, id)
}

func apply(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
