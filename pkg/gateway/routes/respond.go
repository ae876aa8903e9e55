package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/common/logger"
	"github.com/diseaseforecast/platform/pkg/serving/predictor"
	"github.com/gorilla/mux"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Warn("failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps domain errors onto status codes. Anything unrecognised is a
// 500 and its text is not echoed back.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case clinical.IsValidationError(err):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, clinical.ErrPatientNotFound):
		writeDetail(w, http.StatusNotFound, "Patient not found")
	case errors.Is(err, clinical.ErrNoClinicalRecord):
		writeDetail(w, http.StatusNotFound, "No clinical record found")
	case errors.Is(err, clinical.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, clinical.ErrStoreUnavailable), errors.Is(err, predictor.ErrModelUnavailable):
		logger.WithField("path", r.URL.Path).WithError(err).Error("dependency unavailable")
		writeDetail(w, http.StatusServiceUnavailable, "Service unavailable")
	default:
		logger.WithField("path", r.URL.Path).WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// decodeJSON rejects malformed bodies with 422, matching field validation
// failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, name+" must be a non-negative integer")
		return 0, false
	}
	return uint(id), true
}

// handle registers path with and without a trailing slash.
func handle(router *mux.Router, path string, fn http.HandlerFunc, method string) {
	router.HandleFunc(path, fn).Methods(method)
	router.HandleFunc(path+"/", fn).Methods(method)
}
