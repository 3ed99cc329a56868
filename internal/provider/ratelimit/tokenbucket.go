package ratelimit

import (
    "context"
    "math"
    "sync"
    "time"
)

// TokenBucket is a Limiter refilling at rate tokens per second up to
// capacity (the burst). It starts full.
type TokenBucket struct {
    rate     float64
    capacity float64

    mu     sync.Mutex
    tokens float64
    last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
    if tokensPerSecond <= 0 { tokensPerSecond = 0.0000001 }
    if burst <= 0 { burst = 1 }
    return &TokenBucket{
        rate:     tokensPerSecond,
        capacity: float64(burst),
        tokens:   float64(burst),
        last:     time.Now(),
    }
}

// PerMinute builds a bucket from a requests-per-minute quota, the unit
// provider free tiers are documented in.
func PerMinute(requests, burst int) *TokenBucket {
    return NewTokenBucket(float64(requests)/60, burst)
}

// reserve credits the tokens accrued up to now and takes one. When the
// bucket is short it takes nothing and returns the delay until a full token
// will have accrued.
func (tb *TokenBucket) reserve(now time.Time) time.Duration {
    tb.mu.Lock()
    defer tb.mu.Unlock()

    if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
        tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.rate)
        tb.last = now
    }
    if tb.tokens >= 1 {
        tb.tokens--
        return 0
    }
    d := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
    return max(d, time.Millisecond)
}

// Wait blocks until a token is taken or ctx ends.
func (tb *TokenBucket) Wait(ctx context.Context) error {
    for {
        d := tb.reserve(time.Now())
        if d == 0 { return nil }
        timer := time.NewTimer(d)
        select {
        case <-ctx.Done():
            timer.Stop()
            return ctx.Err()
        case <-timer.C:
        }
    }
}
