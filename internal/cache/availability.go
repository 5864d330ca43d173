package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roomdesk/internal/metrics"
	"roomdesk/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AvailabilityCache is a short-TTL Redis cache for availability query
// results. Entries are keyed by room, window and a per-room generation
// counter; invalidation bumps the counter so stale windows simply
// expire. A nil Redis client disables caching.
type AvailabilityCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewAvailabilityCache constructs the cache.
func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{redis: rdb, ttl: ttl, logger: logger}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

func genKey(roomID string) string {
	return "availability:gen:" + roomID
}

func (c *AvailabilityCache) entryKey(ctx context.Context, roomID string, r models.TimeRange) (string, error) {
	gen, err := c.redis.Get(ctx, genKey(roomID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("availability:%s:%d:%d:%d", roomID, gen, r.Start.Unix(), r.End.Unix()), nil
}

// Get returns the cached booking set for the room and window.
func (c *AvailabilityCache) Get(ctx context.Context, roomID string, r models.TimeRange) ([]models.Booking, bool) {
	if !c.enabled() {
		return nil, false
	}

	key, err := c.entryKey(ctx, roomID, r)
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache generation lookup failed")
		return nil, false
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.IncCache("miss")
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache read failed")
		return nil, false
	}

	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, false
	}
	metrics.IncCache("hit")
	return bookings, true
}

// Set stores the booking set for the room and window.
func (c *AvailabilityCache) Set(ctx context.Context, roomID string, r models.TimeRange, bookings []models.Booking) {
	if !c.enabled() {
		return
	}

	key, err := c.entryKey(ctx, roomID, r)
	if err != nil {
		return
	}

	data, err := json.Marshal(bookings)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache write failed")
	}
}

// Invalidate drops all cached windows of a room by bumping its
// generation counter.
func (c *AvailabilityCache) Invalidate(ctx context.Context, roomID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Incr(ctx, genKey(roomID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("room_id", roomID).Msg("availability cache invalidation failed")
	}
}
