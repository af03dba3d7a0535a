package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

type signalSender interface {
	SendSignals(ctx context.Context, chatID string, signals []domain.Signal, tf domain.Timeframe) error
}

// SubscriberStore persists alert subscriptions across restarts.
type SubscriberStore interface {
	Add(ctx context.Context, chatID int64) error
	Remove(ctx context.Context, chatID int64) error
	Members(ctx context.Context) ([]int64, error)
}

// AlertDispatcher fans scheduled signal batches out to subscribed chats.
// Chats that blocked the bot are dropped on the next delivery.
type AlertDispatcher struct {
	sender signalSender
	store  SubscriberStore
	logger zerolog.Logger

	mu    sync.RWMutex
	chats map[int64]struct{}
}

// NewAlertDispatcher accepts a nil store, in which case subscriptions live
// in memory only.
func NewAlertDispatcher(sender signalSender, store SubscriberStore, logger zerolog.Logger) *AlertDispatcher {
	return &AlertDispatcher{
		sender: sender,
		store:  store,
		logger: logger.With().Str("component", "alerts").Logger(),
		chats:  make(map[int64]struct{}),
	}
}

// Load restores persisted subscriptions and returns how many were added.
func (d *AlertDispatcher) Load(ctx context.Context) (int, error) {
	if d.store == nil {
		return 0, nil
	}
	ids, err := d.store.Members(ctx)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	added := 0
	for _, id := range ids {
		if _, ok := d.chats[id]; !ok {
			d.chats[id] = struct{}{}
			added++
		}
	}
	return added, nil
}

// Subscribe reports false when the chat was already subscribed.
func (d *AlertDispatcher) Subscribe(ctx context.Context, chatID int64) bool {
	d.mu.Lock()
	_, exists := d.chats[chatID]
	d.chats[chatID] = struct{}{}
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.Add(ctx, chatID); err != nil {
			d.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("subscription not persisted")
		}
	}
	return !exists
}

// Unsubscribe reports false when the chat was not subscribed.
func (d *AlertDispatcher) Unsubscribe(ctx context.Context, chatID int64) bool {
	d.mu.Lock()
	_, exists := d.chats[chatID]
	delete(d.chats, chatID)
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.Remove(ctx, chatID); err != nil {
			d.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("unsubscribe not persisted")
		}
	}
	return exists
}

func (d *AlertDispatcher) IsSubscribed(chatID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.chats[chatID]
	return ok
}

func (d *AlertDispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.chats)
}

// NotifySignals delivers to every subscriber in chat ID order and joins the
// failures into one error. It returns how many chats received the batch.
func (d *AlertDispatcher) NotifySignals(ctx context.Context, signals []domain.Signal, tf domain.Timeframe) (int, error) {
	if d == nil || d.sender == nil || len(signals) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for _, chatID := range d.subscribers() {
		err := d.sender.SendSignals(ctx, strconv.FormatInt(chatID, 10), signals, tf)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrChatNotFound):
			d.logger.Info().Int64("chat_id", chatID).Msg("dropping unreachable alert chat")
			d.Unsubscribe(ctx, chatID)
		default:
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	if len(errs) > 0 {
		return delivered, fmt.Errorf("failed sending %d alerts: %w", len(errs), errors.Join(errs...))
	}
	return delivered, nil
}

func (d *AlertDispatcher) subscribers() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]int64, 0, len(d.chats))
	for id := range d.chats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type alertMode string

const (
	alertOn     alertMode = "on"
	alertOff    alertMode = "off"
	alertStatus alertMode = "status"
)

func parseAlertMode(args []string) (alertMode, error) {
	if len(args) == 0 {
		return alertStatus, nil
	}
	switch m := alertMode(strings.ToLower(strings.TrimSpace(args[0]))); m {
	case alertOn, alertOff, alertStatus:
		return m, nil
	default:
		return "", fmt.Errorf("invalid alert mode %q", args[0])
	}
}
