package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"mavecli/internal/effect"
	apierrors "mavecli/internal/errors"
	"mavecli/internal/services"
)

// AnalysisHandler serves the pipeline artifacts: coverage, validation,
// summaries, ranked extracts, and the heatmap data.
type AnalysisHandler struct {
	service      *services.AnalysisService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes attaches the analysis routes to the API router.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Get("/coverage", h.GetCoverage)
	r.Get("/validation", h.GetValidation)
	r.Get("/summary", h.GetSummary)
	r.Get("/summary/mutations", h.GetSummaries)
	r.Get("/summary/top", h.GetTop)
	r.Get("/heatmap", h.GetHeatmap)
}

// GetCoverage handles GET /api/coverage.
func (h *AnalysisHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Coverage()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// GetValidation handles GET /api/validation.
func (h *AnalysisHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Validation()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetSummary handles GET /api/summary.
func (h *AnalysisHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// GetSummaries handles GET /api/summary/mutations.
func (h *AnalysisHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summaries()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"count":     len(summaries),
		"mutations": summaries,
	})
}

// GetTop handles GET /api/summary/top?metric=most_deleterious&n=10.
func (h *AnalysisHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	metric := effect.RankMetric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = effect.RankMostDeleterious
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorHandler.HandleError(w, r,
				apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER",
					"Invalid parameter value", "n must be a positive integer"))
			return
		}
		n = parsed
	}

	top, err := h.service.Top(metric, n)
	if err != nil {
		if errors.Is(err, services.ErrResultNotReady) {
			h.handleServiceError(w, r, err)
			return
		}
		// Unknown metric.
		h.errorHandler.HandleError(w, r,
			apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER",
				"Invalid parameter value", err.Error()))
		return
	}
	render.JSON(w, r, map[string]any{
		"metric":    metric,
		"count":     len(top),
		"mutations": top,
	})
}

// GetHeatmap handles GET /api/heatmap.
func (h *AnalysisHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	cells, err := h.service.Heatmap()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"count": len(cells),
		"cells": cells,
	})
}

func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrResultNotReady) {
		h.errorHandler.HandleError(w, r, apierrors.ErrResultNotReady)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
