package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roomhub/identity-service/internal/domain"
	apperrors "github.com/roomhub/identity-service/internal/domain/errors"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string        `json:"error"`
	Message string        `json:"error_description"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents a validation error detail
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func getStatus(err domain.Error) int {
	switch err.GetCode() {
	case apperrors.CodeInvalidClient, apperrors.CodeUnauthorizedClient:
		return http.StatusUnauthorized
	case apperrors.CodeAccessDenied:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConflict:
		return http.StatusConflict
	case apperrors.CodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// RespondWithError sends a standardized error response. Errors that do not
// carry a stable code are masked as internal errors so their details never
// reach the client.
func RespondWithError(w http.ResponseWriter, err error) {
	var domainErr domain.Error
	if !errors.As(err, &domainErr) {
		domainErr = domain.ErrInternal
	}
	writeError(w, domainErr, nil)
}

// RespondErrorWithDetails sends a standardized error response with details
func RespondErrorWithDetails(w http.ResponseWriter, err domain.Error, details []ErrorDetail) {
	writeError(w, err, details)
}

func writeError(w http.ResponseWriter, err domain.Error, details []ErrorDetail) {
	status := getStatus(err)
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    err.GetCode(),
		Message: err.GetMessage(),
		Details: details,
	})
}

// ValidationErrors collects per-field request validation failures
type ValidationErrors []ErrorDetail

// Add adds a validation error to the slice
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ErrorDetail{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Respond sends the collected validation errors as a single invalid_request
// response.
func (v ValidationErrors) Respond(w http.ResponseWriter) {
	writeError(w, apperrors.New(apperrors.CodeInvalidRequest, "Invalid request"), v)
}
