package routes

import (
	"context"
	"net/http"

	"github.com/diseaseforecast/platform/pkg/clinical"
	"github.com/diseaseforecast/platform/pkg/observability/metrics"
	"github.com/gorilla/mux"
)

// SummaryProvider is satisfied by dashboard.Service.
type SummaryProvider interface {
	Summary(ctx context.Context) (*clinical.Summary, error)
}

type MetricsHandler struct {
	summaries SummaryProvider
}

func NewMetricsHandler(summaries SummaryProvider) *MetricsHandler {
	return &MetricsHandler{summaries: summaries}
}

func (h *MetricsHandler) Register(r *mux.Router) {
	r.HandleFunc("/dashboard/summary", h.handleSummary).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

func (h *MetricsHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summaries.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
