// internal/handlers/jobs.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
)

// TaskInspector reads background task state. *asynq.Inspector satisfies it.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// JobsHandler reports the state of queued exports and imports
type JobsHandler struct {
	responder
	inspector TaskInspector
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(inspector TaskInspector, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{
		responder: responder{logger: logger.With(slog.String("handler", "jobs"))},
		inspector: inspector,
	}
}

// JobStatus describes one background job
type JobStatus struct {
	JobID         string          `json:"job_id"`
	Type          string          `json:"type"`
	Queue         string          `json:"queue"`
	State         string          `json:"state"`
	Retried       int             `json:"retried"`
	MaxRetry      int             `json:"max_retry"`
	LastError     string          `json:"last_error,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	NextProcessAt *time.Time      `json:"next_process_at,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

// Status handles GET /api/v1/jobs/{queue}/{id}
func (h *JobsHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	queue := r.PathValue("queue")
	id := r.PathValue("id")

	info, err := h.inspector.GetTaskInfo(queue, id)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) || errors.Is(err, asynq.ErrTaskNotFound) {
			h.respondError(ctx, w, http.StatusNotFound, "not_found", "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("job_id", id),
			slog.String("error", err.Error()))
		h.respondError(ctx, w, http.StatusInternalServerError, "internal_error", "Failed to get job status")
		return
	}

	status := JobStatus{
		JobID:     info.ID,
		Type:      info.Type,
		Queue:     info.Queue,
		State:     info.State.String(),
		Retried:   info.Retried,
		MaxRetry:  info.MaxRetry,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		status.CompletedAt = &info.CompletedAt
	}
	if !info.NextProcessAt.IsZero() {
		status.NextProcessAt = &info.NextProcessAt
	}
	if len(info.Result) > 0 && json.Valid(info.Result) {
		status.Result = info.Result
	}

	h.respondJSON(w, http.StatusOK, status)
}
