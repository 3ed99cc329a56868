package cache

import (
    "context"
    "sync"
    "time"

    "finmetrics/internal/metrics"
)

// entry stores a cached record with expiry.
type entry struct {
    expiresAt time.Time
    rec       metrics.Record
}

// MemoryStore is an in-process Store. MaxItems caps the number of entries,
// evicting expired ones first and then arbitrary ones.
type MemoryStore struct {
    MaxItems int
    // Now defaults to time.Now.
    Now func() time.Time

    mu    sync.RWMutex
    items map[string]entry
}

func NewMemoryStore(maxItems int) *MemoryStore {
    return &MemoryStore{MaxItems: maxItems}
}

func (m *MemoryStore) now() time.Time {
    if m.Now != nil {
        return m.Now()
    }
    return time.Now()
}

func (m *MemoryStore) Get(_ context.Context, key string) (metrics.Record, error) {
    m.mu.RLock()
    e, ok := m.items[key]
    m.mu.RUnlock()
    if !ok || !m.now().Before(e.expiresAt) {
        return metrics.Record{}, ErrMiss
    }
    return e.rec, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, rec metrics.Record, ttl time.Duration) error {
    now := m.now()

    m.mu.Lock()
    defer m.mu.Unlock()
    if m.items == nil { m.items = make(map[string]entry) }
    m.items[key] = entry{expiresAt: now.Add(ttl), rec: rec}

    // best-effort cap cache size
    if m.MaxItems > 0 && len(m.items) > m.MaxItems {
        for k, v := range m.items {
            if !now.Before(v.expiresAt) {
                delete(m.items, k)
            }
            if len(m.items) <= m.MaxItems {
                break
            }
        }
        // If still too big, delete arbitrary keys (never the fresh one) until under limit
        for k := range m.items {
            if len(m.items) <= m.MaxItems { break }
            if k == key { continue }
            delete(m.items, k)
        }
    }
    return nil
}

// Len reports the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return len(m.items)
}
