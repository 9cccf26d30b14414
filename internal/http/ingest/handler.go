package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cashlens-dev/cashlens/internal/ingest"
	"github.com/cashlens-dev/cashlens/internal/model"
)

const maxUploadBytes = 50 << 20

type Handler struct {
	svc *ingest.Service
}

func NewHandler(svc *ingest.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	override, err := parseOverride(r.FormValue("process_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.svc.Submit(r.Context(), header.Filename, file, override)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(submitResponse{JobID: id.String(), Status: "processing"}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// parseOverride turns an optional process_type form value into a manual
// process definition. An empty value means infer from the file.
func parseOverride(value string) (*model.ProcessDefinition, error) {
	if value == "" {
		return nil, nil
	}

	pt := model.ProcessType(value)
	switch pt {
	case model.ProcessRevenueAR, model.ProcessAPExpense, model.ProcessBudgetActual,
		model.ProcessFundOps, model.ProcessMixedOps:
	default:
		return nil, fmt.Errorf("unknown process_type %q", value)
	}

	return &model.ProcessDefinition{
		ProcessType:        pt,
		TimeGranularity:    model.GranularityMonthly,
		InflowSources:      []string{"other"},
		OutflowSources:     []string{"other"},
		Confidence:         100,
		InferenceReasoning: "Process type supplied by the caller",
	}, nil
}
