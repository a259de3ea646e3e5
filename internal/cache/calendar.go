// Package cache keeps per-product reservation calendars in Redis so the
// calendar endpoint does not hit the reservations table on every read.
// Availability checks never read from the cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rentdesk:calendar:"

// Lookup is the result of a calendar read. Generation must be passed back to
// Set so a calendar loaded before an invalidation is never served after it.
type Lookup struct {
	Reservations []domain.Reservation
	Found        bool
	Generation   int64
}

type CalendarCache interface {
	Get(ctx context.Context, productID string) (Lookup, error)
	// Set stores reservations under the generation observed by Get. A write for
	// a generation that has since been invalidated is never read back.
	Set(ctx context.Context, productID string, generation int64, reservations []domain.Reservation) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

type RedisCalendarCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCalendarCache(client redis.Cmdable, ttl time.Duration) *RedisCalendarCache {
	return &RedisCalendarCache{client: client, ttl: ttl}
}

// GenerationKey holds the product's invalidation counter.
func GenerationKey(productID string) string {
	return keyPrefix + "gen:" + productID
}

func Key(productID string, generation int64) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, productID, generation)
}

func (c *RedisCalendarCache) generation(ctx context.Context, productID string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCalendarCache) Get(ctx context.Context, productID string) (Lookup, error) {
	logger.ExternalServiceCall("redis", "GET", "productID", productID)
	gen, err := c.generation(ctx, productID)
	if err != nil {
		logger.ExternalServiceResult("redis", "GET", err, "productID", productID)
		return Lookup{}, err
	}
	lookup := Lookup{Generation: gen}
	data, err := c.client.Get(ctx, Key(productID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return lookup, nil
	}
	if err != nil {
		logger.ExternalServiceResult("redis", "GET", err, "productID", productID)
		return Lookup{}, err
	}
	if err := json.Unmarshal(data, &lookup.Reservations); err != nil {
		return Lookup{}, fmt.Errorf("decode calendar for %s: %w", productID, err)
	}
	lookup.Found = true
	return lookup, nil
}

func (c *RedisCalendarCache) Set(ctx context.Context, productID string, generation int64, reservations []domain.Reservation) error {
	data, err := json.Marshal(reservations)
	if err != nil {
		return fmt.Errorf("encode calendar for %s: %w", productID, err)
	}
	err = c.client.Set(ctx, Key(productID, generation), data, c.ttl).Err()
	logger.ExternalServiceResult("redis", "SET", err, "productID", productID, "generation", generation)
	return err
}

// Invalidate bumps each product's generation. Entries under older generations
// are left to expire.
func (c *RedisCalendarCache) Invalidate(ctx context.Context, productIDs ...string) error {
	for _, id := range productIDs {
		if err := c.client.Incr(ctx, GenerationKey(id)).Err(); err != nil {
			logger.ExternalServiceResult("redis", "INCR", err, "productID", id)
			return err
		}
	}
	if len(productIDs) > 0 {
		logger.ExternalServiceResult("redis", "INCR", nil, "keys", len(productIDs))
	}
	return nil
}

// Noop is used when Redis is not configured. Every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) (Lookup, error)                    { return Lookup{}, nil }
func (Noop) Set(context.Context, string, int64, []domain.Reservation) error { return nil }
func (Noop) Invalidate(context.Context, ...string) error                    { return nil }
