package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetdesk/vetdesk/internal/store"
	"github.com/vetdesk/vetdesk/internal/treatments"
)

func (a *API) handleListTreatments(w http.ResponseWriter, r *http.Request) {
	list, err := a.treatments.GetAll(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *API) handleGetTreatment(w http.ResponseWriter, r *http.Request) {
	tr, err := a.treatments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tr)
}

func (a *API) handleGetManyTreatments(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(chi.URLParam(r, "ids"))
	list, err := a.treatments.GetMany(r.Context(), ids)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, list)
}

func (a *API) handleCreateTreatment(w http.ResponseWriter, r *http.Request) {
	var tr store.Treatment
	if !a.decodeValid(w, r, createTreatmentSchema, &tr) {
		return
	}

	id, err := a.treatments.Create(r.Context(), &tr)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	created, err := a.treatments.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

// handleCloseTreatment discharges a treatment, stamping its discharge date.
func (a *API) handleCloseTreatment(w http.ResponseWriter, r *http.Request) {
	tr, err := a.treatments.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tr)
}

func (a *API) handleUpdateTreatment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status                *string         `json:"status"`
		EnterDate             *string         `json:"enterDate"`
		DischargeDate         *string         `json:"dischargeDate"`
		Medications           json.RawMessage `json:"medications"`
		Food                  json.RawMessage `json:"food"`
		ConclusiveReport      *string         `json:"conclusiveReport"`
		ConclusiveReportShort *string         `json:"conclusiveReportShort"`
		DischargeCare         *string         `json:"dischargeCare"`
		ClinicEvo             json.RawMessage `json:"clinicEvo"`
		ClinicEvoResume       *int            `json:"clinicEvoResume"`
	}
	if !a.decodeValid(w, r, updateTreatmentSchema, &req) {
		return
	}

	tr, err := a.treatments.Update(r.Context(), chi.URLParam(r, "id"), treatments.UpdateParams{
		Status:                req.Status,
		EnterDate:             req.EnterDate,
		DischargeDate:         req.DischargeDate,
		Medications:           req.Medications,
		Food:                  req.Food,
		ConclusiveReport:      req.ConclusiveReport,
		ConclusiveReportShort: req.ConclusiveReportShort,
		DischargeCare:         req.DischargeCare,
		ClinicEvo:             req.ClinicEvo,
		ClinicEvoResume:       req.ClinicEvoResume,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tr)
}

func (a *API) handleDeleteManyTreatments(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(chi.URLParam(r, "ids"))
	if err := a.treatments.DeleteMany(r.Context(), ids); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Treatments deleted successfully"})
}

func (a *API) handleDeleteTreatment(w http.ResponseWriter, r *http.Request) {
	if err := a.treatments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, messageResponse{Message: "Treatment deleted successfully"})
}
