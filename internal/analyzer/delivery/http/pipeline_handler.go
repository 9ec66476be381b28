package http

import (
	"net/http"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/dto"
	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/analyzer/service"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/labstack/echo/v4"
)

// PipelineHandler handles HTTP requests for events, on-demand pipeline runs,
// and the health check.
type PipelineHandler struct {
	eventRepo    repository.EventRepository
	sentimentSvc service.SentimentService
	reconcileSvc service.ReconcilerService
	monitorSvc   service.MonitorService
	logger       *logger.Logger
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(
	eventRepo repository.EventRepository,
	sentimentSvc service.SentimentService,
	reconcileSvc service.ReconcilerService,
	monitorSvc service.MonitorService,
	logger *logger.Logger,
) *PipelineHandler {
	return &PipelineHandler{
		eventRepo:    eventRepo,
		sentimentSvc: sentimentSvc,
		reconcileSvc: reconcileSvc,
		monitorSvc:   monitorSvc,
		logger:       logger,
	}
}

// RegisterRoutes registers event and pipeline routes to the API group.
func (h *PipelineHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/events", h.GetWeekEvents)
	api.POST("/analysis/run", h.RunAnalysis)
	api.POST("/reconciliation/run", h.RunReconciliation)
}

// GetWeekEvents godoc
// @Summary Get high-impact events for a week
// @Description Returns events with their latest indicator for the current week, or the next week with ?week=next
// @Tags events
// @Produce  json
// @Param   week  query  string  false  "Week selector: current (default) or next"
// @Success 200 {array} dto.EventIndicator
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [get]
func (h *PipelineHandler) GetWeekEvents(c echo.Context) error {
	now := time.Now().UTC()
	weekStart, weekEnd := utils.CurrentWeekBounds(now)
	if c.QueryParam("week") == "next" {
		weekStart, weekEnd = utils.NextWeekBounds(now)
	}

	events, err := h.eventRepo.FindWeekEventsWithIndicators(c.Request().Context(), weekStart, weekEnd, now, false)
	if err != nil {
		h.logger.Error("Failed to load week events", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load events"})
	}
	return c.JSON(http.StatusOK, events)
}

// RunAnalysis godoc
// @Summary Run the weekly sentiment analysis now
// @Description Computes, persists, and returns the current week's verdicts
// @Tags pipeline
// @Produce  json
// @Success 200 {object} map[string]dto.CurrencySentiment
// @Failure 500 {object} dto.ErrorResponse
// @Router /analysis/run [post]
func (h *PipelineHandler) RunAnalysis(c echo.Context) error {
	weekStart, weekEnd := utils.CurrentWeekBounds(time.Now().UTC())
	verdicts, err := h.sentimentSvc.CalculateWeeklySentiments(c.Request().Context(), weekStart, weekEnd)
	if err != nil {
		h.logger.Error("On-demand analysis failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, verdicts)
}

// RunReconciliation godoc
// @Summary Run an actual-value reconciliation sweep now
// @Description Back-fills actual values for recent events and returns counts
// @Tags pipeline
// @Produce  json
// @Success 200 {object} dto.ReconciliationRunResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /reconciliation/run [post]
func (h *PipelineHandler) RunReconciliation(c echo.Context) error {
	processed, updated, err := h.reconcileSvc.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("On-demand reconciliation failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, dto.ReconciliationRunResponse{
		EventsProcessed: processed,
		EventsUpdated:   updated,
	})
}

// Health godoc
// @Summary Pipeline health check
// @Description Reports recent collection-run health; 503 when degraded
// @Tags pipeline
// @Produce  json
// @Success 200 {object} dto.HealthReport
// @Failure 503 {object} dto.HealthReport
// @Router /health [get]
func (h *PipelineHandler) Health(c echo.Context) error {
	report, err := h.monitorSvc.CheckHealth(c.Request().Context())
	if err != nil {
		h.logger.Error("Health check failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Health check failed"})
	}
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
