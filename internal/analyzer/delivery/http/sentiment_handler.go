package http

import (
	"encoding/json"
	"net/http"
	"time"

	"forex-sentiment-analyzer/internal/analyzer/repository"
	"forex-sentiment-analyzer/internal/analyzer/service"
	"forex-sentiment-analyzer/pkg/common"
	"forex-sentiment-analyzer/pkg/logger"
	"forex-sentiment-analyzer/pkg/utils"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
)

// SentimentHandler handles HTTP requests for weekly sentiment verdicts.
type SentimentHandler struct {
	sentimentSvc  service.SentimentService
	sentimentRepo repository.SentimentRepository
	redisClient   *goredis.Client
	logger        *logger.Logger
}

// NewSentimentHandler creates a new SentimentHandler.
func NewSentimentHandler(
	sentimentSvc service.SentimentService,
	sentimentRepo repository.SentimentRepository,
	redisClient *goredis.Client,
	logger *logger.Logger,
) *SentimentHandler {
	return &SentimentHandler{
		sentimentSvc:  sentimentSvc,
		sentimentRepo: sentimentRepo,
		redisClient:   redisClient,
		logger:        logger,
	}
}

// RegisterRoutes registers the sentiment routes to the Echo group.
func (h *SentimentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetWeeklySentiments)
	g.GET("/actual", h.GetActualSentiments)
	g.GET("/:currency", h.GetCurrencySentiment)
}

// GetWeeklySentiments godoc
// @Summary Get the current week's sentiment verdicts
// @Description Returns the latest per-currency verdict map for the current week
// @Tags sentiments
// @Produce  json
// @Success 200 {object} map[string]dto.CurrencySentiment
// @Failure 500 {object} dto.ErrorResponse
// @Router /sentiments [get]
func (h *SentimentHandler) GetWeeklySentiments(c echo.Context) error {
	ctx := c.Request().Context()

	// Serve from the verdict cache when the weekly analysis has run recently.
	if h.redisClient != nil {
		payload, err := h.redisClient.Get(ctx, common.RedisKeyWeeklySentiments).Bytes()
		if err == nil {
			return c.JSONBlob(http.StatusOK, payload)
		}
		if err != goredis.Nil {
			h.logger.Warn("Verdict cache read failed", logger.ErrorField(err))
		}
	}

	weekStart, weekEnd := utils.CurrentWeekBounds(time.Now().UTC())
	records, err := h.sentimentRepo.FindByWeek(ctx, weekStart, weekEnd)
	if err != nil {
		h.logger.Error("Failed to load weekly sentiments", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load sentiments"})
	}

	result := make(map[string]json.RawMessage, len(records))
	for _, record := range records {
		result[record.Currency] = json.RawMessage(record.Details)
	}
	return c.JSON(http.StatusOK, result)
}

// GetActualSentiments godoc
// @Summary Get actual-based sentiment verdicts
// @Description Computes verdicts from published actual values for the current week
// @Tags sentiments
// @Produce  json
// @Success 200 {object} map[string]dto.ActualCurrencySentiment
// @Failure 500 {object} dto.ErrorResponse
// @Router /sentiments/actual [get]
func (h *SentimentHandler) GetActualSentiments(c echo.Context) error {
	weekStart, weekEnd := utils.CurrentWeekBounds(time.Now().UTC())
	verdicts, err := h.sentimentSvc.CalculateActualSentiment(c.Request().Context(), weekStart, weekEnd)
	if err != nil {
		h.logger.Error("Failed to compute actual sentiments", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute actual sentiments"})
	}
	return c.JSON(http.StatusOK, verdicts)
}

// GetCurrencySentiment godoc
// @Summary Get the latest verdict for one currency
// @Description Returns the most recently computed verdict for the given currency code
// @Tags sentiments
// @Produce  json
// @Param   currency  path  string  true  "Currency code (e.g. USD)"
// @Success 200 {object} dto.CurrencySentiment
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /sentiments/{currency} [get]
func (h *SentimentHandler) GetCurrencySentiment(c echo.Context) error {
	currency := c.Param("currency")

	record, err := h.sentimentRepo.FindLatestByCurrency(c.Request().Context(), currency)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No sentiment found for currency"})
	}
	return c.JSONBlob(http.StatusOK, record.Details)
}
