package handler

import (
	"context"
	"net/http"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/repository"
	"otc-signals/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

type Analyzer interface {
	Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error)
	Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error)
}

type MarketData interface {
	Prices(ctx context.Context, symbols []string) map[string]float64
	Status() service.MarketStatus
}

type Notifier interface {
	SendSignals(ctx context.Context, chatID string, signals []domain.Signal, tf domain.Timeframe) error
	BotInfo() *tele.User
}

type ChannelStore interface {
	Create(ctx context.Context, name, chatID string) (domain.TelegramChannel, error)
	List(ctx context.Context) ([]domain.TelegramChannel, error)
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

var _ ChannelStore = (*repository.ChannelRepository)(nil)

type Handler struct {
	tracer   trace.Tracer
	analyzer Analyzer
	market   MarketData
	notifier Notifier
	channels ChannelStore
	metrics  http.Handler
	now      func() time.Time
}

// New accepts nil for every collaborator; the routes that need a missing one
// answer 503.
func New(
	tracer trace.Tracer,
	analyzer Analyzer,
	market MarketData,
	notifier Notifier,
	channels ChannelStore,
	metrics http.Handler,
) *Handler {
	return &Handler{
		tracer:   tracer,
		analyzer: analyzer,
		market:   market,
		notifier: notifier,
		channels: channels,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	api.POST("/analyze", h.Analyze)
	api.POST("/algorithm", h.Algorithm)
	api.GET("/pairs", h.GetPairs)
	api.GET("/indicators", h.GetIndicators)
	api.POST("/indicators/compute", h.ComputeIndicators)
	api.POST("/indicators/score", h.ScoreIndicators)
	api.GET("/market-data", h.GetMarketStatus)
	api.POST("/market-data", h.PostMarketData)
	api.GET("/telegram", h.GetBotInfo)
	api.POST("/telegram", h.PostTelegram)
	api.GET("/channels", h.ListChannels)
	api.POST("/channels", h.CreateChannel)
	api.PATCH("/channels/:id", h.UpdateChannel)
	api.DELETE("/channels/:id", h.DeleteChannel)
}

// CORS allows every origin when none are configured.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return cors.New(cfg)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
