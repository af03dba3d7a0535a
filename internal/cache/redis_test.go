package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestInitRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", mr.Addr())

	InitRedis(context.Background(), zerolog.Nop())
	if Client == nil {
		t.Fatal("expected client to be set")
	}
	_ = Client.Close()
	Client = nil
}

func TestInitRedisUnreachableLeavesNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("REDIS_URL", addr)

	InitRedis(context.Background(), zerolog.Nop())
	if Client != nil {
		t.Fatal("expected nil client when redis is down")
	}
}
