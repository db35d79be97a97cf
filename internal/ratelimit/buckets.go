package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter hands out one token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewKeyedLimiter(limit rate.Limit, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (limiter *KeyedLimiter) Allow(key string) bool {
	return limiter.bucket(key).Allow()
}

func (limiter *KeyedLimiter) bucket(key string) *rate.Limiter {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	bucket, exists := limiter.limiters[key]
	if !exists {
		bucket = rate.NewLimiter(limiter.limit, limiter.burst)
		limiter.limiters[key] = bucket
	}
	return bucket
}
