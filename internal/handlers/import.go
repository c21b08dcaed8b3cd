// internal/handlers/import.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
)

// zip local file header; every xlsx workbook starts with it
var xlsxMagic = []byte("PK\x03\x04")

// ImportHandler accepts receipt workbooks and queues them for the ledger
type ImportHandler struct {
	responder
	storage     ports.ObjectStorage
	enqueuer    ports.TaskEnqueuer
	prefix      string
	maxFileSize int64
	now         func() time.Time
}

// NewImportHandler creates a new import handler
func NewImportHandler(storage ports.ObjectStorage, enqueuer ports.TaskEnqueuer, prefix string, maxFileSize int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		responder:   responder{logger: logger.With(slog.String("handler", "import"))},
		storage:     storage,
		enqueuer:    enqueuer,
		prefix:      strings.TrimSuffix(prefix, "/"),
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// ImportReceipts handles POST /api/v1/import/receipts
func (h *ImportHandler) ImportReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("file exceeds %d bytes", h.maxFileSize))
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_form", "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_form", "File is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Sprintf("file exceeds %d bytes", h.maxFileSize))
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_file", "Only .xlsx workbooks are allowed")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read upload", slog.String("error", err.Error()))
		h.respondError(ctx, w, http.StatusInternalServerError, "internal_error", "Failed to read upload")
		return
	}
	if !bytes.HasPrefix(data, xlsxMagic) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid_file", "File is not an xlsx workbook")
		return
	}

	jobID := uuid.New().String()
	key := path.Join(h.prefix, h.now().UTC().Format("2006/01/02"), jobID+".xlsx")

	if _, err := h.storage.Upload(ctx, key, bytes.NewReader(data), workers.XLSXContentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload",
			slog.String("key", key),
			slog.String("error", err.Error()))
		h.respondError(ctx, w, http.StatusInternalServerError, "internal_error", "Failed to save upload")
		return
	}

	task, err := workers.NewReceiptImportTask(workers.ReceiptImportPayload{
		JobID:       jobID,
		ObjectKey:   key,
		FileName:    filepath.Base(header.Filename),
		RequestedBy: services.PrincipalFromContext(ctx),
	})
	if err == nil {
		_, err = h.enqueuer.EnqueueContext(ctx, task, asynq.TaskID(jobID))
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue receipt import",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		if delErr := h.storage.Delete(ctx, key); delErr != nil {
			h.logger.WarnContext(ctx, "failed to remove orphaned upload",
				slog.String("key", key),
				slog.String("error", delErr.Error()))
		}
		h.respondError(ctx, w, http.StatusInternalServerError, "internal_error", "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "receipt import queued",
		slog.String("job_id", jobID),
		slog.String("file", header.Filename),
		slog.Int("bytes", len(data)))

	h.respondJSON(w, http.StatusAccepted, JobResponse{
		JobID:     jobID,
		Queue:     workers.QueueDefault,
		Status:    "queued",
		StatusURL: jobStatusURL(workers.QueueDefault, jobID),
	})
}
