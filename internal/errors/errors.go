package errors

import "net/http"

// Error codes carried in the error_code field of problem responses
const (
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeMissingFile     = "MISSING_FILE"
	CodeParseError      = "PARSE_ERROR"
	CodeFileNotFound    = "FILE_NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeMethodNotAllow  = "METHOD_NOT_ALLOWED"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeTimeout         = "REQUEST_TIMEOUT"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError represents a structured API error
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the error the APIError was built from
func (e *APIError) Unwrap() error {
	return e.cause
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Wrap converts err into an APIError whose message is err's text
func Wrap(statusCode int, errorCode string, err error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    err.Error(),
		cause:      err,
	}
}

// InvalidFileType rejects an upload whose name does not end in .csv
func InvalidFileType(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  CodeInvalidFileType,
		Message:    "Only CSV files are allowed",
		cause:      err,
	}
}

// ParseFailure reports a CSV that could not be transformed
func ParseFailure(err error) *APIError {
	return Wrap(http.StatusBadRequest, CodeParseError, err)
}

// FileNotFound reports an unknown upload id
func FileNotFound(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  CodeFileNotFound,
		Message:    "File not found",
		cause:      err,
	}
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// NewValidationErrors creates a validation error listing every rejected field
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidation, "Request validation failed", errs)
}

// ErrValidation creates a validation error for a single field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// ErrRateLimitExceeded is returned when the request budget is exhausted
var ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimit, "Rate limit exceeded")
