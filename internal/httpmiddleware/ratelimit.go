package httpmiddleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"facetrack/internal/store"
)

// RateLimiter enforces per-IP request limits. Counting happens in Redis
// (fixed one-minute windows shared across instances); when Redis is not
// reachable it falls back to an in-process token bucket.
type RateLimiter struct {
	redis    *redis.Client
	perMin   int
	fallback *tokenBucket
}

// NewRateLimiter creates a limiter allowing perMinute requests per client IP.
func NewRateLimiter(client *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{
		redis:    client,
		perMin:   perMinute,
		fallback: newTokenBucket(perMinute, perMinute),
	}
}

// GinMiddleware returns a gin handler enforcing the limit.
func (l *RateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(c.Request.Context(), ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(ctx context.Context, ip string) bool {
	if l.redis != nil {
		key := store.Key("ratelimit", ip, time.Now().Format("200601021504"))
		count, err := l.redis.Incr(ctx, key).Result()
		if err == nil {
			if count == 1 {
				l.redis.Expire(ctx, key, time.Minute)
			}
			return count <= int64(l.perMin)
		}
		// Redis down: degrade to the local bucket.
	}
	return l.fallback.allow(ip)
}

// tokenBucket is a minimal in-memory per-key limiter.
type tokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

func newTokenBucket(capacity, perMinute int) *tokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &tokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

func (l *tokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
