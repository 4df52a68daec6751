package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/poofware/booking-service/internal/utils"
)

// AvailabilityCache memoizes resolved start times per agent. Entries are
// tagged with a per-agent generation; bumping the generation invalidates
// every entry of that agent at once.
type AvailabilityCache interface {
	Get(ctx context.Context, agentID uuid.UUID, variant string) (entries []AvailableStartTime, generation int64, ok bool)
	Set(ctx context.Context, agentID uuid.UUID, generation int64, variant string, entries []AvailableStartTime)
	Invalidate(ctx context.Context, agentID uuid.UUID)
}

type noopAvailabilityCache struct{}

func NewNoopAvailabilityCache() AvailabilityCache { return noopAvailabilityCache{} }

func (noopAvailabilityCache) Get(context.Context, uuid.UUID, string) ([]AvailableStartTime, int64, bool) {
	return nil, 0, false
}
func (noopAvailabilityCache) Set(context.Context, uuid.UUID, int64, string, []AvailableStartTime) {}
func (noopAvailabilityCache) Invalidate(context.Context, uuid.UUID)                                {}

const availabilityTTL = 5 * time.Minute

type redisAvailabilityCache struct {
	rdb redis.Cmdable
}

// NewRedisAvailabilityCache fails open: Redis errors are logged and treated
// as misses.
func NewRedisAvailabilityCache(rdb redis.Cmdable) AvailabilityCache {
	return &redisAvailabilityCache{rdb: rdb}
}

func generationKey(agentID uuid.UUID) string {
	return "booking:avail:gen:" + agentID.String()
}

func entryKey(agentID uuid.UUID, generation int64, variant string) string {
	return fmt.Sprintf("booking:avail:%s:%d:%s", agentID, generation, variant)
}

func (c *redisAvailabilityCache) Get(ctx context.Context, agentID uuid.UUID, variant string) ([]AvailableStartTime, int64, bool) {
	gen, err := c.rdb.Get(ctx, generationKey(agentID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warn(err, agentID, "read generation")
		return nil, 0, false
	}

	raw, err := c.rdb.Get(ctx, entryKey(agentID, gen, variant)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(err, agentID, "read entry")
		}
		return nil, gen, false
	}

	var entries []AvailableStartTime
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.warn(err, agentID, "decode entry")
		return nil, gen, false
	}
	return entries, gen, true
}

func (c *redisAvailabilityCache) Set(ctx context.Context, agentID uuid.UUID, generation int64, variant string, entries []AvailableStartTime) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.warn(err, agentID, "encode entry")
		return
	}
	if err := c.rdb.Set(ctx, entryKey(agentID, generation, variant), raw, availabilityTTL).Err(); err != nil {
		c.warn(err, agentID, "write entry")
	}
}

func (c *redisAvailabilityCache) Invalidate(ctx context.Context, agentID uuid.UUID) {
	if err := c.rdb.Incr(ctx, generationKey(agentID)).Err(); err != nil {
		c.warn(err, agentID, "bump generation")
	}
}

func (c *redisAvailabilityCache) warn(err error, agentID uuid.UUID, op string) {
	utils.Logger.WithError(err).WithFields(logrus.Fields{
		"agent_id": agentID,
		"op":       op,
	}).Warn("availability cache error")
}
