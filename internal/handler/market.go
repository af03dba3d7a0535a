package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const errSymbolsRequired = "يجب توفير قائمة الرموز"

// GetMarketStatus godoc
// @Summary      Market feed status
// @Tags         market
// @Produce      json
// @Success      200  {object}  service.MarketStatus
// @Failure      503  {object}  map[string]string
// @Router       /api/market-data [get]
func (h *Handler) GetMarketStatus(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}
	c.JSON(http.StatusOK, h.market.Status())
}

type marketRequest struct {
	Symbols json.RawMessage `json:"symbols"`
}

// PostMarketData godoc
// @Summary      Current prices
// @Description  Symbols without a live quote get a synthetic price near 1.0
// @Tags         market
// @Accept       json
// @Produce      json
// @Param        request  body  object  true  "{\"symbols\": [\"EUR/USD-OTC\"]}"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/market-data [post]
func (h *Handler) PostMarketData(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.market-data")
	defer span.End()

	var req marketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errSymbolsRequired})
		return
	}
	var symbols []string
	if len(req.Symbols) == 0 || string(req.Symbols) == "null" || json.Unmarshal(req.Symbols, &symbols) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errSymbolsRequired})
		return
	}
	span.SetAttributes(attribute.Int("symbols", len(symbols)))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"prices":    h.market.Prices(ctx, symbols),
		"timestamp": h.now().UnixMilli(),
	})
}
