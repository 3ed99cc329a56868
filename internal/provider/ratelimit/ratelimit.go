package ratelimit

import (
    "context"
    "sync"
    "time"

    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
)

// Limiter gates upstream calls. One limiter may be shared by several sources
// of the same provider.
type Limiter interface {
    Wait(ctx context.Context) error
}

// Source wraps a source and waits on L before every fetch.
// A canceled wait is reported as an unreachable provider.
type Source struct {
    S provider.Source
    L Limiter
}

func (s *Source) ID() provider.ID { return s.S.ID() }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
    if s.L != nil {
        if err := s.L.Wait(ctx); err != nil {
            return metrics.Record{}, provider.Unreachable(s.S.ID(), ticker, err)
        }
    }
    return s.S.Fetch(ctx, ticker)
}

// MinInterval enforces a minimum time between request starts.
// Concurrent callers are queued onto successive slots, or return early if the
// context is canceled.
type MinInterval struct {
    Interval time.Duration

    mu   sync.Mutex
    next time.Time
}

func NewMinInterval(d time.Duration) *MinInterval {
    return &MinInterval{Interval: d}
}

func (m *MinInterval) Wait(ctx context.Context) error {
    if m.Interval <= 0 {
        return nil
    }
    // reserve the next slot before waiting on it
    m.mu.Lock()
    now := time.Now()
    slot := m.next
    if slot.Before(now) {
        slot = now
    }
    m.next = slot.Add(m.Interval)
    m.mu.Unlock()

    wait := time.Until(slot)
    if wait <= 0 {
        return nil
    }
    t := time.NewTimer(wait)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}
