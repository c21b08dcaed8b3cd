// internal/handlers/audit.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
)

// AuditHandler serves the audit trail as JSON and as spreadsheets
type AuditHandler struct {
	responder
	audit    ports.AuditTrailService
	enqueuer ports.TaskEnqueuer
	now      func() time.Time
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit ports.AuditTrailService, enqueuer ports.TaskEnqueuer, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		responder: responder{logger: logger.With(slog.String("handler", "audit"))},
		audit:     audit,
		enqueuer:  enqueuer,
		now:       time.Now,
	}
}

// AuditHistoryResponse lists audit records, newest first
type AuditHistoryResponse struct {
	Records []domain.AuditRecord `json:"records"`
	Count   int                  `json:"count"`
}

// JobResponse acknowledges a queued background job
type JobResponse struct {
	JobID     string `json:"job_id"`
	Queue     string `json:"queue"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// History handles GET /api/v1/audit
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseAuditFilter(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	records, err := h.audit.History(ctx, filter)
	if err != nil {
		h.respondServiceError(ctx, w, err, "list audit records")
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}

	h.respondJSON(w, http.StatusOK, AuditHistoryResponse{Records: records, Count: len(records)})
}

// Download handles GET /api/v1/audit/export
func (h *AuditHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseAuditFilter(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	filter.Limit = workers.MaxExportRecords

	records, err := h.audit.History(ctx, filter)
	if err != nil {
		h.respondServiceError(ctx, w, err, "export audit records")
		return
	}

	data, err := workers.BuildAuditWorkbook(records)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build audit workbook", slog.String("error", err.Error()))
		h.respondError(ctx, w, http.StatusInternalServerError, "internal_error", "failed to generate workbook")
		return
	}

	filename := fmt.Sprintf("audit_export_%s.xlsx", h.now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", workers.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write audit workbook", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "audit export downloaded",
		slog.Int("records", len(records)),
		slog.String("filename", filename))
}

// Export handles POST /api/v1/audit/export. The workbook is built by the
// worker and stored under the export prefix.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseAuditFilter(r)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	payload := workers.AuditExportPayload{
		JobID:       uuid.New().String(),
		WarehouseID: filter.WarehouseID,
		ProductID:   filter.ProductID,
		From:        filter.From,
		To:          filter.To,
		RequestedBy: services.PrincipalFromContext(ctx),
	}

	task, err := workers.NewAuditExportTask(payload)
	if err != nil {
		h.respondServiceError(ctx, w, err, "queue audit export")
		return
	}
	if _, err := h.enqueuer.EnqueueContext(ctx, task, asynq.TaskID(payload.JobID)); err != nil {
		h.respondServiceError(ctx, w, err, "queue audit export")
		return
	}

	h.logger.InfoContext(ctx, "audit export queued", slog.String("job_id", payload.JobID))

	h.respondJSON(w, http.StatusAccepted, JobResponse{
		JobID:     payload.JobID,
		Queue:     workers.QueueLow,
		Status:    "queued",
		StatusURL: jobStatusURL(workers.QueueLow, payload.JobID),
	})
}

func parseAuditFilter(r *http.Request) (domain.AuditFilter, error) {
	var (
		filter domain.AuditFilter
		err    error
	)
	if filter.WarehouseID, err = queryID(r, "warehouse_id"); err != nil {
		return filter, err
	}
	if filter.ProductID, err = queryID(r, "product_id"); err != nil {
		return filter, err
	}
	if filter.From, err = queryTime(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		return filter, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, fmt.Errorf("to must not be before from")
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	return filter, nil
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: use RFC 3339 or YYYY-MM-DD", name, raw)
	}
	return &t, nil
}

func jobStatusURL(queue, id string) string {
	return "/api/v1/jobs/" + queue + "/" + id
}
