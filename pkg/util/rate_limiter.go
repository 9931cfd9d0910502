package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SenderLimiter bounds how many inbound emails one sender address may submit
// per window. A nil limiter (redis not configured) allows everything.
type SenderLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewSenderLimiter(rdb *redis.Client, limit int, window time.Duration) *SenderLimiter {
	return &SenderLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow increments the sender's window counter and reports whether the
// sender is still under the limit.
func (l *SenderLimiter) Allow(ctx context.Context, sender string) (bool, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 {
		return true, nil
	}

	key := formatSenderKey(sender)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	// Set expiration on first increment
	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}

	return count <= int64(l.limit), nil
}

func formatSenderKey(sender string) string {
	return fmt.Sprintf("inbound:sender:%s", sender)
}
