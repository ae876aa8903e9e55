package routes

import (
	"net/http"

	"github.com/diseaseforecast/platform/pkg/serving"
	"github.com/gorilla/mux"
)

type PredictionHandler struct {
	svc *serving.Service
}

func RegisterPredictionRoutes(router *mux.Router, svc *serving.Service) {
	if svc == nil {
		panic("prediction routes require a service")
	}
	h := &PredictionHandler{svc: svc}

	router.HandleFunc("/predict/history/{patientId}", h.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/predict/trend/{patientId}", h.handleTrend).Methods(http.MethodGet)
	router.HandleFunc("/predict/{patientId}", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/model", h.handleModel).Methods(http.MethodGet)
}

func (h *PredictionHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	res, err := h.svc.RunPrediction(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PredictionHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	preds, err := h.svc.History(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *PredictionHandler) handleTrend(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathID(w, r, "patientId")
	if !ok {
		return
	}
	points, err := h.svc.Trend(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *PredictionHandler) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ModelInfo())
}
