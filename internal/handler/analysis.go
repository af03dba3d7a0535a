package handler

import (
	"errors"
	"net/http"
	"strings"

	"otc-signals/internal/domain"
	"otc-signals/internal/indicator"
	"otc-signals/internal/signal"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	errInvalidBody    = "طلب غير صالح"
	errAnalysisFailed = "حدث خطأ أثناء التحليل"
)

// Analyze godoc
// @Summary      Generate a signal schedule
// @Description  Spreads signals for the selected pairs across the time window and drops entries closer than the minimum gap
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        settings  body  domain.AnalysisSettings  true  "Analysis settings"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	var settings domain.AnalysisSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	span.SetAttributes(attribute.Int("pairs", len(settings.SelectedPairs)))

	signals, err := h.analyzer.Analyze(ctx, settings)
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errAnalysisFailed})
		return
	}
	if signals == nil {
		signals = []domain.Signal{}
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}

type algorithmRequest struct {
	Pair      string           `json:"pair"`
	Timeframe domain.Timeframe `json:"timeframe"`
	Candles   []domain.Candle  `json:"candles"`
	Threshold int              `json:"threshold"`
}

// Algorithm godoc
// @Summary      Evaluate one pair
// @Description  Computes indicators, the rule score and the trade levels; candles are fetched when omitted
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body  algorithmRequest  true  "Pair and optional candles"
// @Success      200  {object}  service.Evaluation
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/algorithm [post]
func (h *Handler) Algorithm(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.algorithm")
	defer span.End()

	var req algorithmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	if strings.TrimSpace(req.Pair) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrNoPairs.Error()})
		return
	}
	pair, ok := domain.FindPair(req.Pair)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported pair: " + req.Pair})
		return
	}
	span.SetAttributes(attribute.String("pair", pair.Symbol))

	ev, err := h.analyzer.Evaluate(ctx, pair.Symbol, req.Timeframe, req.Candles, req.Threshold)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": errAnalysisFailed})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// GetPairs godoc
// @Summary      List tradable pairs
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/pairs [get]
func (h *Handler) GetPairs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pairs": domain.TradingPairs, "defaults": domain.DefaultPairs})
}

// GetIndicators godoc
// @Summary      Default indicator catalog
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/indicators [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"indicators": domain.DefaultIndicators()})
}

type computeRequest struct {
	Candles []domain.Candle `json:"candles"`
}

// ComputeIndicators godoc
// @Summary      Compute an indicator snapshot
// @Description  An empty series yields the neutral snapshot
// @Tags         indicators
// @Accept       json
// @Produce      json
// @Param        request  body  computeRequest  true  "Chronological candles"
// @Success      200  {object}  domain.IndicatorSnapshot
// @Failure      400  {object}  map[string]string
// @Router       /api/indicators/compute [post]
func (h *Handler) ComputeIndicators(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.compute-indicators")
	defer span.End()

	var req computeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	span.SetAttributes(attribute.Int("candles", len(req.Candles)))
	c.JSON(http.StatusOK, indicator.Compute(req.Candles))
}

type scoreRequest struct {
	Indicators *domain.IndicatorSnapshot `json:"indicators"`
	Threshold  int                       `json:"threshold"`
}

// ScoreIndicators godoc
// @Summary      Score an indicator snapshot
// @Tags         indicators
// @Accept       json
// @Produce      json
// @Param        request  body  scoreRequest  true  "Indicator snapshot and threshold"
// @Success      200  {object}  domain.ScoreResult
// @Failure      400  {object}  map[string]string
// @Router       /api/indicators/score [post]
func (h *Handler) ScoreIndicators(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.score-indicators")
	defer span.End()

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	if req.Indicators == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "indicators are required"})
		return
	}
	if req.Threshold <= 0 {
		req.Threshold = domain.DefaultSuccessThreshold
	}
	c.JSON(http.StatusOK, signal.Score(*req.Indicators, req.Threshold))
}
