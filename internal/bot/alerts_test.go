package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

func TestParseAlertMode(t *testing.T) {
	mode, err := parseAlertMode(nil)
	if err != nil || mode != alertStatus {
		t.Fatalf("expected default status mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAlertMode([]string{"on"})
	if err != nil || mode != alertOn {
		t.Fatalf("expected on mode, got mode=%q err=%v", mode, err)
	}

	mode, err = parseAlertMode([]string{" OFF "})
	if err != nil || mode != alertOff {
		t.Fatalf("expected off mode, got mode=%q err=%v", mode, err)
	}

	if _, err := parseAlertMode([]string{"nope"}); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestAlertDispatcherNotifySignals(t *testing.T) {
	sender := &fakeSignalSender{}
	store := newFakeStore()
	dispatcher := NewAlertDispatcher(sender, store, zerolog.Nop())
	ctx := context.Background()

	if !dispatcher.Subscribe(ctx, 20) || !dispatcher.Subscribe(ctx, -10) {
		t.Fatal("expected initial subscribes to return true")
	}
	if dispatcher.Subscribe(ctx, 20) {
		t.Fatal("expected duplicate subscribe to return false")
	}
	if dispatcher.SubscriberCount() != 2 || len(store.ids) != 2 {
		t.Fatalf("expected 2 subscribers in memory and store, got %d/%d", dispatcher.SubscriberCount(), len(store.ids))
	}

	signals := []domain.Signal{{Pair: "EUR/USD-OTC", Direction: domain.DirectionCall, EntryTime: "10:00"}}
	n, err := dispatcher.NotifySignals(ctx, signals, domain.TimeframeM5)
	if err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 chats reached, got %d", n)
	}
	if strings.Join(sender.chats, ",") != "-10,20" {
		t.Fatalf("expected sorted delivery, got %v", sender.chats)
	}
	if sender.tf != domain.TimeframeM5 {
		t.Fatalf("expected timeframe passed through, got %s", sender.tf)
	}
}

func TestAlertDispatcherCollectsFailures(t *testing.T) {
	sender := &fakeSignalSender{err: errors.New("timeout")}
	dispatcher := NewAlertDispatcher(sender, nil, zerolog.Nop())
	dispatcher.Subscribe(context.Background(), 1)
	dispatcher.Subscribe(context.Background(), 2)

	n, err := dispatcher.NotifySignals(context.Background(), []domain.Signal{{Pair: "EUR/USD-OTC"}}, domain.TimeframeM1)
	if err == nil || !strings.Contains(err.Error(), "failed sending 2 alerts") {
		t.Fatalf("expected aggregated failure, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no chats reached, got %d", n)
	}
	if dispatcher.SubscriberCount() != 2 {
		t.Fatal("transient failures must keep subscribers")
	}
}

func TestAlertDispatcherDropsBlockedChats(t *testing.T) {
	sender := &fakeSignalSender{errFor: map[string]error{
		"1": fmt.Errorf("send to 1: %w", tele.ErrBlockedByUser),
	}}
	store := newFakeStore()
	dispatcher := NewAlertDispatcher(sender, store, zerolog.Nop())
	dispatcher.Subscribe(context.Background(), 1)
	dispatcher.Subscribe(context.Background(), 2)

	n, err := dispatcher.NotifySignals(context.Background(), []domain.Signal{{Pair: "EUR/USD-OTC"}}, domain.TimeframeM1)
	if err != nil {
		t.Fatalf("blocked chats are not failures, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the healthy chat counted, got %d", n)
	}
	if dispatcher.IsSubscribed(1) || store.ids[1] {
		t.Fatal("expected blocked chat removed from memory and store")
	}
	if !dispatcher.IsSubscribed(2) {
		t.Fatal("expected healthy chat kept")
	}
}

func TestAlertDispatcherUnsubscribe(t *testing.T) {
	sender := &fakeSignalSender{}
	dispatcher := NewAlertDispatcher(sender, nil, zerolog.Nop())
	ctx := context.Background()

	dispatcher.Subscribe(ctx, 10)
	if !dispatcher.Unsubscribe(ctx, 10) {
		t.Fatal("expected unsubscribe to return true")
	}
	if dispatcher.Unsubscribe(ctx, 10) {
		t.Fatal("expected second unsubscribe to return false")
	}
	if dispatcher.IsSubscribed(10) {
		t.Fatal("expected chat to be unsubscribed")
	}

	if _, err := dispatcher.NotifySignals(ctx, []domain.Signal{{Pair: "EUR/USD-OTC"}}, domain.TimeframeM1); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}
	if len(sender.chats) != 0 {
		t.Fatalf("expected zero outgoing messages, got %v", sender.chats)
	}

	var nilDispatcher *AlertDispatcher
	if _, err := nilDispatcher.NotifySignals(ctx, []domain.Signal{{}}, domain.TimeframeM1); err != nil {
		t.Fatalf("nil dispatcher should be a no-op, got %v", err)
	}
}

func TestAlertDispatcherLoad(t *testing.T) {
	store := newFakeStore()
	store.ids[5] = true
	store.ids[7] = true
	dispatcher := NewAlertDispatcher(&fakeSignalSender{}, store, zerolog.Nop())
	dispatcher.Subscribe(context.Background(), 5)

	n, err := dispatcher.Load(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one restored chat, got %d err=%v", n, err)
	}
	if !dispatcher.IsSubscribed(7) {
		t.Fatal("expected chat 7 restored")
	}

	store.err = errors.New("redis down")
	if _, err := dispatcher.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if n, err := NewAlertDispatcher(nil, nil, zerolog.Nop()).Load(context.Background()); n != 0 || err != nil {
		t.Fatalf("expected nil store no-op, got %d %v", n, err)
	}
}

func TestAlertDispatcherKeepsMemoryWhenStoreFails(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("redis down")
	dispatcher := NewAlertDispatcher(&fakeSignalSender{}, store, zerolog.Nop())
	if !dispatcher.Subscribe(context.Background(), 3) || !dispatcher.IsSubscribed(3) {
		t.Fatal("expected in-memory subscription despite store failure")
	}
}

type fakeSignalSender struct {
	chats  []string
	tf     domain.Timeframe
	err    error
	errFor map[string]error
}

func (f *fakeSignalSender) SendSignals(ctx context.Context, chatID string, signals []domain.Signal, tf domain.Timeframe) error {
	f.chats = append(f.chats, chatID)
	f.tf = tf
	if err, ok := f.errFor[chatID]; ok {
		return err
	}
	return f.err
}

type fakeStore struct {
	ids map[int64]bool
	err error
}

func newFakeStore() *fakeStore { return &fakeStore{ids: make(map[int64]bool)} }

func (f *fakeStore) Add(ctx context.Context, chatID int64) error {
	if f.err != nil {
		return f.err
	}
	f.ids[chatID] = true
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, chatID int64) error {
	if f.err != nil {
		return f.err
	}
	delete(f.ids, chatID)
	return nil
}

func (f *fakeStore) Members(ctx context.Context) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []int64
	for id := range f.ids {
		out = append(out, id)
	}
	return out, nil
}
