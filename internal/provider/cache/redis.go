package cache

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "finmetrics/internal/metrics"
)

// RedisStore keeps records as JSON values under a key prefix.
type RedisStore struct {
    client redis.UniversalClient
    prefix string
}

// RedisConfig holds connection settings for NewRedisClient.
type RedisConfig struct {
    Addr        string
    Password    string
    DB          int
    PoolSize    int
    DialTimeout time.Duration
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
    client := redis.NewClient(&redis.Options{
        Addr:        cfg.Addr,
        Password:    cfg.Password,
        DB:          cfg.DB,
        PoolSize:    cfg.PoolSize,
        DialTimeout: cfg.DialTimeout,
    })

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return client, nil
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
    return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) wrapKey(key string) string {
    if s.prefix == "" {
        return key
    }
    return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (metrics.Record, error) {
    data, err := s.client.Get(ctx, s.wrapKey(key)).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return metrics.Record{}, ErrMiss
        }
        return metrics.Record{}, err
    }
    var rec metrics.Record
    if err := json.Unmarshal(data, &rec); err != nil {
        return metrics.Record{}, fmt.Errorf("decoding cached record: %w", err)
    }
    return rec, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, rec metrics.Record, ttl time.Duration) error {
    data, err := json.Marshal(rec)
    if err != nil {
        return err
    }
    return s.client.Set(ctx, s.wrapKey(key), data, ttl).Err()
}
