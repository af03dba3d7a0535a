package cache

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const alertSubscribersKey = "otc:alerts:subscribers"

// SubscriberSet persists the chats that opted into scheduled alerts so they
// survive restarts. A nil client keeps nothing.
type SubscriberSet struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewSubscriberSet(client *redis.Client, tracer trace.Tracer) *SubscriberSet {
	return &SubscriberSet{client: client, tracer: tracer}
}

func (s *SubscriberSet) Add(ctx context.Context, chatID int64) error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "alert-subscribers.add")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	if err := s.client.SAdd(ctx, alertSubscribersKey, chatID).Err(); err != nil {
		return fmt.Errorf("add alert subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *SubscriberSet) Remove(ctx context.Context, chatID int64) error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "alert-subscribers.remove")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	if err := s.client.SRem(ctx, alertSubscribersKey, chatID).Err(); err != nil {
		return fmt.Errorf("remove alert subscriber %d: %w", chatID, err)
	}
	return nil
}

// Members returns the stored chat IDs in ascending order, skipping any
// member that is not an integer.
func (s *SubscriberSet) Members(ctx context.Context) ([]int64, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	ctx, span := s.tracer.Start(ctx, "alert-subscribers.members")
	defer span.End()

	raw, err := s.client.SMembers(ctx, alertSubscribersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list alert subscribers: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
