package jobs

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/export"
	"github.com/cashlens-dev/cashlens/internal/ingest"
	"github.com/cashlens-dev/cashlens/internal/job"
	"github.com/cashlens-dev/cashlens/internal/model"
)

type Handler struct {
	svc      *ingest.Service
	exporter *export.Service
}

func NewHandler(svc *ingest.Service, exporter *export.Service) *Handler {
	return &Handler{svc: svc, exporter: exporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}", h.status)
	r.Get("/{id}/export/{format}", h.export)
}

type statusResponse struct {
	JobID     string      `json:"job_id"`
	Status    job.Status  `json:"status"`
	Result    *job.Result `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{
		JobID:     rec.ID.String(),
		Status:    rec.Status,
		Result:    rec.Result,
		Error:     rec.Error,
		UpdatedAt: rec.UpdatedAt,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if rec.Status != job.StatusCompleted || rec.Result == nil || rec.Result.Model == nil {
		http.Error(w, "job has no exportable result", http.StatusConflict)
		return
	}

	m := rec.Result.Model

	switch chi.URLParam(r, "format") {
	case "csv":
		h.write(w, m, "text/csv", "summary.csv", h.exporter.WriteSummaryCSV)
	case "transactions":
		h.write(w, m, "text/csv", "transactions.csv", h.exporter.WriteTransactionsCSV)
	case "buckets":
		h.write(w, m, "text/csv", "time_buckets.csv", h.exporter.WriteTimeBucketsCSV)
	case "xlsx":
		h.write(w, m, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"model.xlsx", h.exporter.WriteWorkbook)
	case "audit":
		h.write(w, m, "text/plain", "audit_trail.txt", h.exporter.WriteAuditTrail)
	default:
		http.Error(w, "unknown export format", http.StatusBadRequest)
	}
}

func (h *Handler) write(
	w http.ResponseWriter,
	m *model.NormalizedFinancialModel,
	contentType, filename string,
	writeFn func(io.Writer, *model.NormalizedFinancialModel) error,
) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := writeFn(w, m); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (job.Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return job.Record{}, false
	}

	rec, found, err := h.svc.Status(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return job.Record{}, false
	}

	if !found {
		http.Error(w, "job not found", http.StatusNotFound)
		return job.Record{}, false
	}

	return rec, true
}
