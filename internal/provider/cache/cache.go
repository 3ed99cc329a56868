package cache

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/rs/zerolog"
    "golang.org/x/sync/singleflight"

    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Store keeps records for a limited time.
type Store interface {
    Get(ctx context.Context, key string) (metrics.Record, error)
    Set(ctx context.Context, key string, rec metrics.Record, ttl time.Duration) error
}

// Key builds the cache key of a record: provider, upper-cased ticker, view.
func Key(id provider.ID, ticker string, view metrics.View) string {
    return fmt.Sprintf("%s:%s:%s", id, strings.ToUpper(strings.TrimSpace(ticker)), view)
}

// Source caches successful fetches of S for TTL.
// Store faults are logged and treated as misses; errors are never cached.
// Concurrent misses for one key share a single upstream call, which runs
// detached from any one caller and is bounded by Timeout; each caller stops
// waiting when its own context ends.
type Source struct {
    S       provider.Source
    Store   Store
    TTL     time.Duration
    Timeout time.Duration
    View    metrics.View
    Log     zerolog.Logger

    group singleflight.Group
}

func (c *Source) ID() provider.ID { return c.S.ID() }

// Fetch returns the cached record of ticker when still valid.
func (c *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
    if c.Store == nil || c.TTL <= 0 {
        return c.S.Fetch(ctx, ticker)
    }

    key := Key(c.S.ID(), ticker, c.View)
    rec, err := c.Store.Get(ctx, key)
    switch {
    case err == nil:
        return rec.WithTicker(ticker), nil
    case !errors.Is(err, ErrMiss):
        c.Log.Warn().Err(err).Str("key", key).Msg("cache get failed")
    }

    ch := c.group.DoChan(key, func() (any, error) {
        // The shared fetch outlives any single caller.
        fctx, cancel := c.detach(ctx)
        defer cancel()

        rec, err := c.S.Fetch(fctx, ticker)
        if err != nil {
            return metrics.Record{}, err
        }
        if err := c.Store.Set(fctx, key, rec, c.TTL); err != nil {
            c.Log.Warn().Err(err).Str("key", key).Msg("cache set failed")
        }
        return rec, nil
    })

    select {
    case <-ctx.Done():
        return metrics.Record{}, provider.Unreachable(c.S.ID(), ticker, ctx.Err())
    case res := <-ch:
        if res.Err != nil {
            return metrics.Record{}, res.Err
        }
        return res.Val.(metrics.Record).WithTicker(ticker), nil
    }
}

// detach drops the caller's cancellation and deadline, bounding the shared
// fetch by Timeout instead.
func (c *Source) detach(ctx context.Context) (context.Context, context.CancelFunc) {
    ctx = context.WithoutCancel(ctx)
    if c.Timeout > 0 {
        return context.WithTimeout(ctx, c.Timeout)
    }
    return context.WithCancel(ctx)
}
