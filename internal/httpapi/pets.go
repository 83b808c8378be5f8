package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetdesk/vetdesk/internal/auth"
	"github.com/vetdesk/vetdesk/internal/pets"
	"github.com/vetdesk/vetdesk/internal/store"
)

// handleListPets returns every pet for staff and only the caller's own pets
// for tutors.
func (a *API) handleListPets(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var (
		list []*store.Pet
		err  error
	)
	if claims.Role == auth.RoleTutor {
		list, err = a.pets.GetByTutor(r.Context(), claims.AccountID)
	} else {
		list, err = a.pets.GetAll(r.Context())
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *API) handleGetPet(w http.ResponseWriter, r *http.Request) {
	pet, err := a.pets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, pet)
}

func (a *API) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	var pet store.Pet
	if !a.decodeValid(w, r, createPetSchema, &pet) {
		return
	}

	created, err := a.pets.Create(r.Context(), &pet)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleUpdatePet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Avatar  *string `json:"avatar"`
		Name    *string `json:"name"`
		Type    *string `json:"type"`
		Breed   *string `json:"breed"`
		Color   *string `json:"color"`
		Status  *string `json:"status"`
		TutorID *string `json:"tutorId"`
		QRCode  *string `json:"qrCode"`
	}
	if !a.decodeValid(w, r, updatePetSchema, &req) {
		return
	}

	pet, err := a.pets.Update(r.Context(), chi.URLParam(r, "id"), pets.UpdateParams{
		Avatar:  req.Avatar,
		Name:    req.Name,
		Type:    req.Type,
		Breed:   req.Breed,
		Color:   req.Color,
		Status:  req.Status,
		TutorID: req.TutorID,
		QRCode:  req.QRCode,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, pet)
}

func (a *API) handleDeletePet(w http.ResponseWriter, r *http.Request) {
	if err := a.pets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Pet deleted successfully"})
}
