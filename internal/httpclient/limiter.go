package httpclient

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound requests. Acquire blocks until a slot is
// available or the context is cancelled.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// TokenBucket is a per-provider request limiter. Capacity equals the
// configured requests-per-minute; tokens refill continuously based on
// elapsed time rather than on a fixed tick, so short bursts up to the
// capacity pass through and sustained traffic converges on the rate.
//
// Safe for concurrent callers: the monitor engine and the candle
// collector may share one bucket per provider.
type TokenBucket struct {
	mu         sync.Mutex
	ratePerSec float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a bucket allowing ratePerMinute requests per
// minute, starting full.
func NewTokenBucket(ratePerMinute int) *TokenBucket {
	if ratePerMinute <= 0 {
		ratePerMinute = 1
	}
	return &TokenBucket{
		ratePerSec: float64(ratePerMinute) / 60.0,
		capacity:   float64(ratePerMinute),
		tokens:     float64(ratePerMinute),
		lastRefill: time.Now(),
	}
}

// Acquire takes one token, sleeping until enough has refilled.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refillLocked(time.Now())
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - b.tokens) / b.ratePerSec * float64(time.Second))
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (b *TokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.ratePerSec
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// NopLimiter never blocks. Used in tests.
type NopLimiter struct{}

// Acquire returns immediately.
func (NopLimiter) Acquire(ctx context.Context) error {
	return ctx.Err()
}

var (
	_ Limiter = (*TokenBucket)(nil)
	_ Limiter = NopLimiter{}
)
