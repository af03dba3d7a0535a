package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func TestSubscriberSetRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewSubscriberSet(client, trace.NewNoopTracerProvider().Tracer("test"))
	ctx := context.Background()

	for _, id := range []int64{20, -10, 20} {
		if err := s.Add(ctx, id); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	if _, err := mr.SAdd(alertSubscribersKey, "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ids, err := s.Members(ctx)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(ids) != 2 || ids[0] != -10 || ids[1] != 20 {
		t.Fatalf("expected sorted [-10 20], got %v", ids)
	}

	if err := s.Remove(ctx, 20); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ids, _ := s.Members(ctx); len(ids) != 1 || ids[0] != -10 {
		t.Fatalf("expected [-10], got %v", ids)
	}
}

func TestSubscriberSetWithoutClient(t *testing.T) {
	s := NewSubscriberSet(nil, trace.NewNoopTracerProvider().Tracer("test"))
	ctx := context.Background()
	if err := s.Add(ctx, 1); err != nil {
		t.Fatalf("expected no-op add, got %v", err)
	}
	if ids, err := s.Members(ctx); err != nil || ids != nil {
		t.Fatalf("expected no members, got %v %v", ids, err)
	}

	var nilSet *SubscriberSet
	if err := nilSet.Remove(ctx, 1); err != nil {
		t.Fatalf("expected nil set no-op, got %v", err)
	}
}

func TestSubscriberSetReportsRedisErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewSubscriberSet(client, trace.NewNoopTracerProvider().Tracer("test"))

	mr.Close()
	if err := s.Add(context.Background(), 1); err == nil {
		t.Fatal("expected error once redis is gone")
	}
}
