package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"salespulse/internal/infrastructure"
)

// ErrorHandler converts errors into RFC 7807 responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID(r))

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	infrastructure.RecordError(r.Context(), err)
	WriteProblem(w, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		).WithExtension("error_code", CodeTimeout)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r)
	}

	// Unclassified failures keep their message so clients can see what broke
	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		http.StatusText(http.StatusInternalServerError),
		err.Error(),
		r.URL.Path,
	).WithExtension("error_code", CodeInternal)
}

// apiErrorToProblem converts APIError to ProblemDetails
func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeValidation:
		problemType = TypeValidation
	case CodeInvalidFileType, CodeMissingFile:
		problemType = TypeInvalidFile
	case CodeParseError:
		problemType = TypeParse
	case CodeFileNotFound, CodeNotFound:
		problemType = TypeNotFound
	case CodeRateLimit:
		problemType = TypeRateLimit
	case CodeTimeout:
		problemType = TypeTimeout
	case CodeMethodNotAllow:
		problemType = TypeMethod
	case CodeInvalidRequest:
		problemType = TypeBadRequest
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		key := "details"
		if apiErr.ErrorCode == CodeValidation {
			key = "errors"
		}
		problem.WithExtension(key, apiErr.Details)
	}

	return problem
}

// HandlePanic answers a recovered panic with a 500 problem
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		http.StatusText(http.StatusInternalServerError),
		"An unexpected error occurred",
		r.URL.Path,
	).
		WithExtension("error_code", CodeInternal).
		WithExtension("trace_id", traceID(r))

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
	}

	WriteProblem(w, problem)
}

// NotFound returns a standard 404 problem
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).
		WithExtension("error_code", CodeNotFound).
		WithExtension("trace_id", traceID(r))

	WriteProblem(w, problem)
}

// MethodNotAllowed returns a standard 405 problem
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethod,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).
		WithExtension("error_code", CodeMethodNotAllow).
		WithExtension("trace_id", traceID(r))

	WriteProblem(w, problem)
}

// WriteError writes err as a problem response without logging. Middleware
// that runs outside the handler chain uses it.
func WriteError(w http.ResponseWriter, r *http.Request, err *APIError) {
	problem := apiErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID(r))
	WriteProblem(w, problem)
}

func traceID(r *http.Request) string {
	if id := infrastructure.GetTraceID(r.Context()); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}
