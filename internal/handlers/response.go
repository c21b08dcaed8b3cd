// internal/handlers/response.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

const maxJSONBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// responder is embedded by handlers for shared response writing
type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: logger.RequestID(ctx),
	})
}

// respondServiceError maps a service error onto its HTTP status. Business
// errors echo their message; infrastructure errors are logged and hidden.
func (h responder) respondServiceError(ctx context.Context, w http.ResponseWriter, err error, action string) {
	status, code := statusFor(err)

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, "failed to "+action, slog.String("error", err.Error()))
	default:
		h.logger.InfoContext(ctx, action+" rejected",
			slog.String("code", code),
			slog.String("error", err.Error()))
	}

	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		message = "the resource is busy, retry the request"
	case http.StatusInternalServerError:
		message = "failed to " + action
	}
	h.respondError(ctx, w, status, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDuplicateLineItem):
		return http.StatusBadRequest, "duplicate_line_item"
	case errors.Is(err, domain.ErrInvalidSaleRequest):
		return http.StatusBadRequest, "invalid_sale_request"
	case errors.Is(err, domain.ErrInvalidMovement):
		return http.StatusBadRequest, "invalid_movement"
	case errors.Is(err, domain.ErrInvalidThreshold):
		return http.StatusBadRequest, "invalid_threshold"
	case errors.Is(err, domain.ErrInvalidAuditFilter):
		return http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, domain.ErrUnknownOrInactiveProduct):
		return http.StatusUnprocessableEntity, "unknown_or_inactive_product"
	case errors.Is(err, domain.ErrUnknownReference):
		return http.StatusUnprocessableEntity, "unknown_reference"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidSaleTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusServiceUnavailable, "concurrent_modification"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a single JSON object into dst and runs struct validation
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}

	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// pathID parses a positive integer path value
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryID parses an optional positive integer query value
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &id, nil
}
