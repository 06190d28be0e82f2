package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/dispatch-analytics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/dispatch-analytics/internal/core/analytics"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/services"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	// Check for AppError first (our custom error type)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err, requestID)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Check for ValidationErrors
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err, requestID)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	// Map known domain errors to HTTP responses
	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err, requestID)
	h.writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Upload problems
	case errors.Is(err, apperrors.ErrNoFile):
		return http.StatusBadRequest, ErrorResponse{
			Error: "A non-empty file must be uploaded in the \"file\" field",
			Code:  "NO_FILE",
		}
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, ErrorResponse{
			Error: "Unsupported file format",
			Code:  "UNSUPPORTED_FORMAT",
			Details: map[string]interface{}{
				"supported": services.SupportedExtensions(),
			},
		}
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "File exceeds the maximum upload size",
			Code:  "FILE_TOO_LARGE",
		}
	case errors.Is(err, apperrors.ErrUploadInProgress):
		return http.StatusConflict, ErrorResponse{
			Error: "An upload of this dataset is already being processed",
			Code:  "UPLOAD_IN_PROGRESS",
		}

	// Content problems
	case errors.Is(err, apperrors.ErrDecodeFailed):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "The file could not be read as a spreadsheet",
			Code:  "DECODE_FAILED",
		}
	case errors.Is(err, apperrors.ErrNoSheets):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "The workbook contains no sheets",
			Code:  "NO_SHEETS",
		}
	case errors.Is(err, apperrors.ErrNoValidRows):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "No valid rows found. Check that the file has Reference and Date columns.",
			Code:  "NO_VALID_ROWS",
		}
	case errors.Is(err, apperrors.ErrUnknownKind):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "Could not tell whether the file holds cases or operations",
			Code:  "UNKNOWN_KIND",
		}

	// Query validation
	case errors.Is(err, apperrors.ErrInvalidView):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Unknown case view",
			Code:  "INVALID_VIEW",
			Details: map[string]interface{}{
				"views": analytics.Views(),
			},
		}
	case errors.Is(err, apperrors.ErrInvalidDatasetKind):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Unknown dataset kind",
			Code:  "INVALID_DATASET_KIND",
		}
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "BAD_REQUEST",
		}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error, requestID string) {
	logAttrs := []any{
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	// Log at different levels based on status code
	switch {
	case statusCode >= 500:
		h.logger.Error("server error", logAttrs...)
	case statusCode >= 400:
		h.logger.Warn("client error", logAttrs...)
	default:
		h.logger.Info("request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
