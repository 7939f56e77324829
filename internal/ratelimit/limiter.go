package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/achievement-minter/internal/adapter"
	"github.com/feral-file/achievement-minter/internal/logger"
)

// redisRetryInterval is how long the limiter stays on the local fallback after a Redis error
const redisRetryInterval = 30 * time.Second

// Limiter decides whether a caller may proceed without waiting
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockLimiter
type Limiter interface {
	// Allow reports whether the request identified by key may proceed now.
	// retryAfter is set when it may not.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration)
}

// Config holds the rate limit for one class of requests
type Config struct {
	RequestsPerMinute int
	Burst             int
	RedisKeyPrefix    string
}

type limiter struct {
	config      Config
	distributed adapter.RedisRateLimiter
	clock       adapter.Clock

	mu    sync.Mutex
	local map[string]*rate.Limiter

	redisAvailable atomic.Bool
	redisFailedAt  atomic.Int64
}

// NewLimiter creates a limiter shared across replicas through Redis.
// With a nil Redis client, or while Redis is failing, limits are enforced per process.
func NewLimiter(cfg Config, rc adapter.RedisClient, clock adapter.Clock) Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 6
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	l := &limiter{
		config: cfg,
		clock:  clock,
		local:  make(map[string]*rate.Limiter),
	}
	if rc != nil {
		l.distributed = rc.NewRateLimiter()
		l.redisAvailable.Store(true)
	}
	return l
}

func (l *limiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.useRedis() {
		res, err := l.distributed.Allow(ctx, l.config.RedisKeyPrefix+key, redis_rate.Limit{
			Rate:   l.config.RequestsPerMinute,
			Burst:  l.config.Burst,
			Period: time.Minute,
		})
		if err == nil {
			if res.Allowed == 0 {
				return false, res.RetryAfter
			}
			return true, 0
		}

		l.redisAvailable.Store(false)
		l.redisFailedAt.Store(l.clock.Now().UnixNano())
		logger.Warn("Redis rate limiter error, falling back to local", zap.String("key", key), zap.Error(err))
	}

	lim := l.localLimiter(key)
	now := l.clock.Now()
	reservation := lim.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// useRedis reports whether the distributed limiter should be tried
func (l *limiter) useRedis() bool {
	if l.distributed == nil {
		return false
	}
	if l.redisAvailable.Load() {
		return true
	}
	failedAt := time.Unix(0, l.redisFailedAt.Load())
	if l.clock.Since(failedAt) >= redisRetryInterval {
		l.redisAvailable.Store(true)
		return true
	}
	return false
}

func (l *limiter) localLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.local[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.config.RequestsPerMinute)), l.config.Burst)
		l.local[key] = lim
	}
	return lim
}
