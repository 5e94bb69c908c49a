// Package rate implementa rate limiting de ventana fija por key.
package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// RetryAfterSeconds redondea RetryAfter hacia arriba, mínimo 1.
func (r Result) RetryAfterSeconds() int {
	return max(int(math.Ceil(r.RetryAfter.Seconds())), 1)
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func windowKey(prefix, key string, winStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())
}

func result(hits, limit int64, rest time.Duration) Result {
	res := Result{Allowed: hits <= limit, Remaining: max(limit-hits, 0), CurrentHits: hits}
	if !res.Allowed {
		res.RetryAfter = rest
	}
	return res
}

// =================================================================================
// MEMORY
// =================================================================================

// MemoryLimiter cuenta hits por ventana en go-cache; cada contador expira con su ventana.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	counters *gocache.Cache
	now      func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:      int64(max),
		Window:   window,
		counters: gocache.New(window, window),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := windowKey("", key, winStart)

	_ = l.counters.Add(k, int64(0), l.Window)
	hits, err := l.counters.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, err
	}
	return result(hits, l.Max, winStart.Add(l.Window).Sub(now)), nil
}

// =================================================================================
// REDIS
// =================================================================================

// RedisLimiter: INCR + EXPIRE por ventana.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	redisKey := windowKey(l.Prefix, key, now.Truncate(l.Window))

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.Window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	rest := ttl.Val()
	if rest < 0 {
		rest = l.Window
	}
	return result(incr.Val(), l.Max, rest), nil
}

// NewLimiter elige backend: redis si hay cliente, memory si no.
func NewLimiter(client *rdb.Client, prefix string, max int, window time.Duration) Limiter {
	if client != nil {
		return NewRedisLimiter(client, prefix, max, window)
	}
	return NewMemoryLimiter(max, window)
}
