package apperrors

// AppError represents an application error
// @Description An application error with a stable code and a human-readable message
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes. They follow the OAuth 2.0 error registry where one exists so the
// HTTP layer can forward them verbatim in token endpoint responses.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidClient        = "invalid_client"
	CodeInvalidGrant         = "invalid_grant"
	CodeInvalidScope         = "invalid_scope"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeUnauthorizedClient   = "unauthorized_client"
	CodeAccessDenied         = "access_denied"
	CodeNotFound             = "not_found"
	CodeConflict             = "conflict"
	CodeInternal             = "server_error"
)

// Error returns the error message
func (e *AppError) Error() string {
	return e.Message
}

// GetCode returns the stable error code
func (e *AppError) GetCode() string {
	return e.Code
}

// GetMessage returns the human-readable message
func (e *AppError) GetMessage() string {
	return e.Message
}

// New creates a new AppError with the given code and message
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewInternal creates a new internal error wrapping the underlying cause
func NewInternal(message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Details: details,
	}
}

// Is reports whether target carries the same code and message, which makes
// sentinel AppError values usable with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}
