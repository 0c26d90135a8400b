package ratelimit

import (
	"sync"
	"time"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
)

// Limiter implements per-principal rate limiting with token buckets
type Limiter struct {
	buckets    map[string]*tokenBucket
	bucketsMux sync.RWMutex
	limit      int
	period     time.Duration
	stopOnce   sync.Once
	stop       chan struct{}
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewLimiter creates a limiter allowing limit requests per period
func NewLimiter(limit int, period time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*tokenBucket),
		limit:   limit,
		period:  period,
		stop:    make(chan struct{}),
	}
}

var _ interfaces.RateLimiter = (*Limiter)(nil)

// Allow checks if a request is allowed for the given principal
func (rl *Limiter) Allow(principalID string) (bool, error) {
	bucket := rl.getBucket(principalID)

	bucket.mutex.Lock()
	defer bucket.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)

	if elapsed >= rl.period {
		bucket.tokens = rl.limit
		bucket.lastRefill = now
	} else {
		tokensToAdd := int(elapsed.Nanoseconds() * int64(rl.limit) / rl.period.Nanoseconds())
		bucket.tokens = min(bucket.tokens+tokensToAdd, rl.limit)
		if tokensToAdd > 0 {
			bucket.lastRefill = now
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true, nil
	}

	return false, nil
}

// Reset restores the full allowance for a principal
func (rl *Limiter) Reset(principalID string) error {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	if bucket, exists := rl.buckets[principalID]; exists {
		bucket.mutex.Lock()
		bucket.tokens = rl.limit
		bucket.lastRefill = time.Now()
		bucket.mutex.Unlock()
	}

	return nil
}

// GetLimits returns the remaining token count and the limit for a principal
func (rl *Limiter) GetLimits(principalID string) (int, int, error) {
	bucket := rl.getBucket(principalID)

	bucket.mutex.Lock()
	defer bucket.mutex.Unlock()

	return bucket.tokens, rl.limit, nil
}

func (rl *Limiter) getBucket(principalID string) *tokenBucket {
	rl.bucketsMux.RLock()
	bucket, exists := rl.buckets[principalID]
	rl.bucketsMux.RUnlock()

	if exists {
		return bucket
	}

	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	// Re-check under the write lock
	if bucket, exists := rl.buckets[principalID]; exists {
		return bucket
	}

	bucket = &tokenBucket{
		tokens:     rl.limit,
		lastRefill: time.Now(),
	}
	rl.buckets[principalID] = bucket

	return bucket
}

// cleanup drops buckets that have been idle for over a day
func (rl *Limiter) cleanup() {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)

	for principalID, bucket := range rl.buckets {
		bucket.mutex.Lock()
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, principalID)
		}
		bucket.mutex.Unlock()
	}
}

// StartCleanup starts periodic pruning of idle buckets
func (rl *Limiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop terminates the cleanup goroutine
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}
