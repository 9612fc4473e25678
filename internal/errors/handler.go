package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"mavecli/internal/dataprocessing"
	"mavecli/internal/effect"
	"mavecli/internal/operations"
)

// Problem type URIs following RFC 7807.
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeConflict   = "/errors/conflict"
	TypeInternal   = "/errors/internal"
	TypeTimeout    = "/errors/timeout"

	TypeInvalidInput         = "/errors/data/invalid-input"
	TypeValidationInfeasible = "/errors/analysis/validation-infeasible"
	TypePipelineFailed       = "/errors/analysis/pipeline-failed"
	TypeRunInProgress        = "/errors/analysis/run-in-progress"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
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

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var inputErr *dataprocessing.InputError
	if errors.As(err, &inputErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeInvalidInput,
			"Invalid Input Data",
			inputErr.Error(),
			r.URL.Path,
		)
	}

	var infeasibleErr *effect.ValidationInfeasibleError
	if errors.As(err, &infeasibleErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeValidationInfeasible,
			"Validation Infeasible",
			infeasibleErr.Error(),
			r.URL.Path,
		)
	}

	var opErr *operations.OperationError
	if errors.As(err, &opErr) {
		return h.operationErrorToProblem(opErr, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "INVALID_REQUEST", "MISSING_PARAMETER", "INVALID_PARAMETER":
		problemType = TypeValidation
	case "NOT_FOUND", "RESULT_NOT_READY":
		problemType = TypeNotFound
	case "RUN_IN_PROGRESS":
		problemType = TypeRunInProgress
	case "INVALID_INPUT":
		problemType = TypeInvalidInput
	case "PIPELINE_FAILED", "PIPELINE_EXECUTION_FAILED":
		problemType = TypePipelineFailed
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

func (h *ErrorHandler) operationErrorToProblem(opErr *operations.OperationError, r *http.Request) *ProblemDetails {
	status := http.StatusInternalServerError
	problemType := TypePipelineFailed
	title := "Pipeline Execution Failed"
	switch opErr.Type {
	case operations.ErrorTypeNotFound:
		status = http.StatusNotFound
		problemType = TypeNotFound
		title = "Step Not Found"
	case operations.ErrorTypeValidation:
		status = http.StatusBadRequest
		problemType = TypeValidation
		title = "Validation Failed"
	case operations.ErrorTypeCancellation:
		status = http.StatusGatewayTimeout
		problemType = TypeTimeout
		title = "Run Cancelled"
	}

	problem := NewProblemDetails(status, problemType, title, opErr.Error(), r.URL.Path)
	if opErr.Step != "" {
		problem.WithExtension("step", opErr.Step)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
