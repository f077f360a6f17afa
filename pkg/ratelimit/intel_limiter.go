// Package ratelimit caps how often one owner may call the API.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window and admits the request
// if fewer than the limit remain. A refusal returns the negated wait in ms.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

if redis.call('ZCARD', key) < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window_ms * 2)
	return 1
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest > 0 then
	return -(oldest[2] + window_ms - now)
end
return 0
`)

// Limiter is the check the middleware runs per request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// SlidingWindow is a Redis sorted-set limiter shared by every API replica.
type SlidingWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindow(client *redis.Client, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether key may proceed and, if not, how long until it may.
// Redis errors admit the request.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (bool, time.Duration) {
	now := l.now()
	res, err := slidingWindow.Run(ctx, l.client, []string{"ratelimit:" + key},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
		// unique member so requests sharing a timestamp are each counted
		now.Format(time.RFC3339Nano)+"-"+uuid.NewString(),
	).Int64()
	if err != nil {
		return true, 0
	}

	switch {
	case res == 1:
		return true, 0
	case res < 0:
		return false, time.Duration(-res) * time.Millisecond
	default:
		return false, l.window
	}
}
