package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ihaichao/stock-pulse/pkg/logging"
)

// Cache is a Redis-backed read cache for the HTTP views. It is strictly
// best-effort: every Redis error is logged and swallowed, so a dead Redis
// degrades the service to direct database reads instead of failing requests.
type Cache struct {
	client goredis.UniversalClient
	logger logging.Logger
}

func New(client goredis.UniversalClient, logger logging.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Enabled reports whether a Redis client is wired in. A nil client turns
// every operation into a no-op.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached payload for key, or false on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache get failed")
		return nil, false
	}
	return val, true
}

// Put stores a payload under key with the given TTL. Failures are logged
// and dropped.
func (c *Cache) Put(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, val, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache put failed")
	}
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("Cache delete failed")
	}
}

// InvalidateTicker purges the user's event views and the per-ticker
// views after a watchlist change. Scheduled ingestion never calls this;
// the TTLs bound staleness for everything else.
func (c *Cache) InvalidateTicker(ctx context.Context, userID, ticker string) {
	c.Delete(ctx,
		UpcomingKey(userID),
		DailySummaryKey(userID),
		StockEventsKey(ticker),
		StockProfileKey(ticker),
		EarningsHistoryKey(ticker),
	)
}

// Key builders. Every cached view has exactly one builder so the key
// shapes live in one place. The upcoming and daily-summary views are
// per user; the rest are shared.

func UpcomingKey(userID string) string {
	return fmt.Sprintf("pulse:events:upcoming:%s", userID)
}

func TodayKey() string {
	return "pulse:events:today"
}

func StockEventsKey(ticker string) string {
	return fmt.Sprintf("pulse:events:stock:%s", ticker)
}

func MacroMonthKey(year int, month time.Month) string {
	return fmt.Sprintf("pulse:macro:%04d-%02d", year, int(month))
}

func DailySummaryKey(userID string) string {
	return fmt.Sprintf("pulse:daily-summary:%s", userID)
}

func StockProfileKey(ticker string) string {
	return fmt.Sprintf("pulse:profile:%s", ticker)
}

func EarningsHistoryKey(ticker string) string {
	return fmt.Sprintf("pulse:earnings-history:%s", ticker)
}
