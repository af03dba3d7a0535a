package handler

import (
	"errors"
	"net/http"
	"strings"

	"otc-signals/internal/bot"
	"otc-signals/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ListChannels godoc
// @Summary      List broadcast channels
// @Tags         channels
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/channels [get]
func (h *Handler) ListChannels(c *gin.Context) {
	if h.channels == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-channels")
	defer span.End()

	channels, err := h.channels.List(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

type channelRequest struct {
	Name   string `json:"name"`
	ChatID string `json:"chatId"`
}

// CreateChannel godoc
// @Summary      Register a broadcast channel
// @Description  Registering an existing chat id updates its name and re-enables it
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        request  body  channelRequest  true  "Channel"
// @Success      201  {object}  domain.TelegramChannel
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/channels [post]
func (h *Handler) CreateChannel(c *gin.Context) {
	if h.channels == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-channel")
	defer span.End()

	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	req.ChatID = strings.TrimSpace(req.ChatID)
	if _, err := bot.ParseChatID(req.ChatID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errChatRequired})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.ChatID
	}
	span.SetAttributes(attribute.String("chat_id", req.ChatID))

	ch, err := h.channels.Create(ctx, name, req.ChatID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errServer})
		return
	}
	c.JSON(http.StatusCreated, ch)
}

type channelUpdate struct {
	Enabled *bool `json:"enabled"`
}

// UpdateChannel godoc
// @Summary      Enable or disable a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id       path  string         true  "Channel ID"
// @Param        request  body  channelUpdate  true  "New state"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/channels/{id} [patch]
func (h *Handler) UpdateChannel(c *gin.Context) {
	if h.channels == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.update-channel")
	defer span.End()

	var req channelUpdate
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}
	id := c.Param("id")
	if err := h.channels.SetEnabled(ctx, id, *req.Enabled); err != nil {
		h.channelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

// DeleteChannel godoc
// @Summary      Remove a channel
// @Tags         channels
// @Param        id  path  string  true  "Channel ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/channels/{id} [delete]
func (h *Handler) DeleteChannel(c *gin.Context) {
	if h.channels == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "channel store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-channel")
	defer span.End()

	if err := h.channels.Delete(ctx, c.Param("id")); err != nil {
		h.channelError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) channelError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrChannelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": errServer})
}
