package routes

import (
	"net/http"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/gorilla/mux"
)

type ClinicalHandler struct {
	svc *clinical.Service
}

func RegisterClinicalRoutes(router *mux.Router, svc *clinical.Service) {
	if svc == nil {
		panic("clinical routes require a service")
	}
	h := &ClinicalHandler{svc: svc}

	handle(router, "/patients", h.handleCreatePatient, http.MethodPost)
	handle(router, "/patients", h.handleListPatients, http.MethodGet)
	router.HandleFunc("/patients/{id}", h.handleGetPatient).Methods(http.MethodGet)

	handle(router, "/records", h.handleCreateRecord, http.MethodPost)
	router.HandleFunc("/records/{patientId}", h.handleListRecords).Methods(http.MethodGet)
}

func (h *ClinicalHandler) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req clinical.PatientCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePatient(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ClinicalHandler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.svc.ListPatients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if patients == nil {
		patients = []clinical.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *ClinicalHandler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPatient(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ClinicalHandler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req clinical.RecordCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.CreateRecord(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ClinicalHandler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	records, err := h.svc.ListRecords(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []clinical.ClinicalRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
