package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(client, logger), mr
}

func TestGetPutRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, UpcomingKey("u1")); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(ctx, UpcomingKey("u1"), []byte(`[{"id":"e1"}]`), 30*time.Minute)
	val, ok := c.Get(ctx, UpcomingKey("u1"))
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(val) != `[{"id":"e1"}]` {
		t.Errorf("unexpected payload: %s", val)
	}
}

func TestTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, TodayKey(), []byte("x"), 15*time.Minute)
	mr.FastForward(16 * time.Minute)

	if _, ok := c.Get(ctx, TodayKey()); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestInvalidateTicker(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(ctx, UpcomingKey("u1"), []byte("a"), time.Hour)
	c.Put(ctx, DailySummaryKey("u1"), []byte("b"), time.Hour)
	c.Put(ctx, UpcomingKey("u2"), []byte("c"), time.Hour)
	c.Put(ctx, StockEventsKey("AAPL"), []byte("d"), time.Hour)
	c.Put(ctx, StockProfileKey("AAPL"), []byte("e"), time.Hour)
	c.Put(ctx, EarningsHistoryKey("AAPL"), []byte("f"), time.Hour)
	c.Put(ctx, StockEventsKey("MSFT"), []byte("g"), time.Hour)
	c.Put(ctx, TodayKey(), []byte("h"), time.Hour)

	c.InvalidateTicker(ctx, "u1", "AAPL")

	for _, key := range []string{
		UpcomingKey("u1"), DailySummaryKey("u1"),
		StockEventsKey("AAPL"), StockProfileKey("AAPL"), EarningsHistoryKey("AAPL"),
	} {
		if _, ok := c.Get(ctx, key); ok {
			t.Errorf("expected %s to be purged", key)
		}
	}

	// Other users, other tickers, and the shared today view stay cached.
	if _, ok := c.Get(ctx, UpcomingKey("u2")); !ok {
		t.Error("expected u2 keys to survive")
	}
	if _, ok := c.Get(ctx, StockEventsKey("MSFT")); !ok {
		t.Error("expected MSFT keys to survive")
	}
	if _, ok := c.Get(ctx, TodayKey()); !ok {
		t.Error("expected shared today view to survive")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	logger := logrus.New()
	c := New(nil, logger)
	ctx := context.Background()

	c.Put(ctx, "k", []byte("v"), time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("nil-client cache should always miss")
	}
	c.InvalidateTicker(ctx, "u", "AAPL")
}

func TestMacroMonthKey(t *testing.T) {
	if got := MacroMonthKey(2026, time.March); got != "pulse:macro:2026-03" {
		t.Errorf("unexpected key: %s", got)
	}
}
