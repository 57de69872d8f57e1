package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error ErrorResponse `json:"error"`
}

// ErrorResponse describes a failed request. RequestID echoes the
// correlation ID so clients can quote it.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and error envelope. Validation errors carry
// per-field messages; 5xx responses are logged with the request-scoped
// logger when one is present, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	resp := ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}
	status := http.StatusInternalServerError

	var (
		appErr *apperrors.AppError
		valErr *validator.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		resp.Code = "VALIDATION_ERROR"
		resp.Message = "request validation failed"
		resp.Fields = valErr.Fields()
	case errors.As(err, &appErr):
		status = appErr.Status
		resp.Code = appErr.Code
		resp.Message = appErr.Message
	default:
		status = apperrors.HTTPStatus(err)
		resp.Code = "INTERNAL_ERROR"
		resp.Message = "an internal error occurred"
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("code", resp.Code),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorEnvelope{Error: resp})
}

// ParseUUID parses a path parameter. On failure it writes a 400 response and
// returns false so the caller can return early.
func ParseUUID(w http.ResponseWriter, r *http.Request, name, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{Error: ErrorResponse{
			Code:      "INVALID_INPUT",
			Message:   "invalid " + name + ": " + value,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		}})
		return uuid.Nil, false
	}
	return id, true
}
