package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a sliding-window limiter backed by Redis sorted sets, for
// deployments where several instances must share counters. Each (op, addr)
// pair maps to one sorted set whose member scores are request timestamps.
type RedisLimiter struct {
	client   *redis.Client
	limits   map[string]Limit
	fallback Limit
	logger   *logrus.Logger
}

func NewRedisLimiter(client *redis.Client, limits map[string]Limit, fallback Limit, logger *logrus.Logger) *RedisLimiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &RedisLimiter{
		client:   client,
		limits:   limits,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *RedisLimiter) limit(op string) Limit {
	if lim, ok := l.limits[op]; ok {
		return lim
	}
	return l.fallback
}

// Allow trims expired entries, checks the remaining count and records the
// request. Redis failures are surfaced to the caller, never silently allowed.
func (l *RedisLimiter) Allow(ctx context.Context, op, addr string) error {
	lim := l.limit(op)
	key := redisKeyPrefix + op + ":" + addr
	now := time.Now()
	cutoff := now.Add(-lim.Window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.WithError(err).Error("Failed to check rate limit in Redis")
		return fmt.Errorf("rate limit check: %w", err)
	}

	if count.Val() >= int64(lim.MaxRequests) {
		return &Error{Op: op, RetryAfter: lim.Window}
	}

	pipe = l.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, lim.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.WithError(err).Error("Failed to record rate limit entry in Redis")
		return fmt.Errorf("rate limit record: %w", err)
	}

	return nil
}
