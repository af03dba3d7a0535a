package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/metrics"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

var ErrInvalidChat = errors.New("chat id must be numeric or start with @")

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// chatRecipient addresses a chat by numeric id or @username.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

func ParseChatID(raw string) (tele.Recipient, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "@") && len(raw) > 1 {
		return chatRecipient(raw), nil
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return nil, ErrInvalidChat
	}
	return chatRecipient(raw), nil
}

// Notifier delivers signal batches to Telegram chats.
type Notifier struct {
	sender   messageSender
	me       *tele.User
	location *time.Location
	now      func() time.Time
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewNotifier(sender messageSender, me *tele.User, loc *time.Location, tracer trace.Tracer, m *metrics.Metrics, logger zerolog.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		sender:   sender,
		me:       me,
		location: loc,
		now:      time.Now,
		tracer:   tracer,
		metrics:  m,
		logger:   logger.With().Str("component", "telegram-notifier").Logger(),
	}
}

// SendSignals splits long batches across several messages.
func (n *Notifier) SendSignals(ctx context.Context, chatID string, signals []domain.Signal, tf domain.Timeframe) error {
	_, span := n.tracer.Start(ctx, "telegram-notifier.send-signals")
	defer span.End()
	span.SetAttributes(attribute.String("chat_id", chatID), attribute.Int("signals", len(signals)))

	to, err := ParseChatID(chatID)
	if err != nil {
		return err
	}
	if !tf.Valid() {
		tf = domain.TimeframeM1
	}

	now := n.now().In(n.location)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}
	for _, batch := range chunkSignals(signals) {
		if _, err := n.sender.Send(to, FormatSignals(batch, tf, now), opts); err != nil {
			n.count("failed")
			span.RecordError(err)
			n.logger.Warn().Err(err).Str("chat_id", chatID).Msg("telegram delivery failed")
			return fmt.Errorf("send to %s: %w", chatID, err)
		}
	}
	n.count("sent")
	n.logger.Info().Str("chat_id", chatID).Int("signals", len(signals)).Msg("signals delivered")
	return nil
}

// BotInfo is the bot account reported by getMe at startup.
func (n *Notifier) BotInfo() *tele.User {
	return n.me
}

func (n *Notifier) count(outcome string) {
	if n.metrics != nil {
		n.metrics.BroadcastsTotal.WithLabelValues(outcome).Inc()
	}
}
