package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const priceKeyPrefix = "otc:price:"

// PriceCache keeps the last live quote per symbol for a short TTL. A nil
// client turns every call into a miss.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewPriceCache(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *PriceCache {
	return &PriceCache{client: client, ttl: ttl, tracer: tracer}
}

func (c *PriceCache) Get(ctx context.Context, symbol string) (float64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	ctx, span := c.tracer.Start(ctx, "price-cache.get")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	raw, err := c.client.Get(ctx, priceKeyPrefix+symbol).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cached price %s: %w", symbol, err)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached price %s: %w", symbol, err)
	}
	return price, true, nil
}

func (c *PriceCache) Set(ctx context.Context, symbol string, price float64) error {
	if c == nil || c.client == nil {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "price-cache.set")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	value := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, priceKeyPrefix+symbol, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache price %s: %w", symbol, err)
	}
	return nil
}
