package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "mavecli/internal/errors"
	"mavecli/internal/services"
)

// OperationsHandler triggers pipeline runs and reports their status.
type OperationsHandler struct {
	service      *services.OperationsService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates the operations handler.
func NewOperationsHandler(service *services.OperationsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/run", h.StartRun)
	r.Get("/status", h.GetStatus)
	r.Get("/steps", h.GetSteps)

	return r
}

// runRequest is the optional body of POST /api/operations/run.
type runRequest struct {
	Steps []string `json:"steps"`
}

// StartRun handles POST /api/operations/run. An empty body runs the whole
// pipeline; a steps list runs a subset in pipeline order.
func (h *OperationsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.service.Start(req.Steps...); err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			h.errorHandler.HandleError(w, r, apierrors.ErrRunInProgress)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "pipeline run started",
		slog.Any("steps", req.Steps))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]any{
		"status": "started",
		"steps":  h.resolvedSteps(req.Steps),
	})
}

// GetStatus handles GET /api/operations/status.
func (h *OperationsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	running, last := h.service.Status()
	payload := map[string]any{"running": running}
	if last != nil {
		payload["last_run"] = last
	}
	render.JSON(w, r, payload)
}

// GetSteps handles GET /api/operations/steps.
func (h *OperationsHandler) GetSteps(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"steps": h.service.StepIDs()})
}

func (h *OperationsHandler) resolvedSteps(requested []string) []string {
	if len(requested) == 0 {
		return h.service.StepIDs()
	}
	return requested
}
