package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"otc-signals/internal/bot"
	"otc-signals/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	errChatRequired = "معرف الدردشة مطلوب"
	errSendFailed   = "فشل إرسال الرسالة إلى تيليجرام"
	errServer       = "حدث خطأ في الخادم"
)

type telegramRequest struct {
	ChatID    json.RawMessage         `json:"chatId"`
	Signals   []domain.Signal         `json:"signals"`
	Timeframe domain.Timeframe        `json:"timeframe"`
	Settings  domain.AnalysisSettings `json:"settings"`
}

// chatIDText accepts the id as a JSON string or number.
func chatIDText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// GetBotInfo godoc
// @Summary      Telegram bot account
// @Tags         telegram
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/telegram [get]
func (h *Handler) GetBotInfo(c *gin.Context) {
	if h.notifier == nil || h.notifier.BotInfo() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telegram bot unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": h.notifier.BotInfo()})
}

// PostTelegram godoc
// @Summary      Deliver signals to a chat
// @Tags         telegram
// @Accept       json
// @Produce      json
// @Param        request  body  telegramRequest  true  "Chat id, signals and timeframe"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/telegram [post]
func (h *Handler) PostTelegram(c *gin.Context) {
	if h.notifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telegram bot unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.telegram")
	defer span.End()

	var req telegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	chatID := chatIDText(req.ChatID)
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errChatRequired})
		return
	}
	span.SetAttributes(attribute.String("chat_id", chatID), attribute.Int("signals", len(req.Signals)))

	tf := req.Timeframe
	if tf == "" {
		tf = req.Settings.Timeframe
	}
	if err := h.notifier.SendSignals(ctx, chatID, req.Signals, tf); err != nil {
		if errors.Is(err, bot.ErrInvalidChat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errChatRequired})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errSendFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
