package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "crm:"

// Redis keeps, for every namespace, a metadata list holding the keys written
// under it. Invalidate deletes the listed keys together with the list.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(url string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("cache connected", "addr", opts.Addr, "ttl", ttl)
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func dataKey(namespace, key string) string {
	return keyPrefix + namespace + ":" + key
}

func metaKey(namespace string) string {
	return keyPrefix + namespace + ":_keys"
}

func (c *Redis) Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error) {
	// an expired metadata list means the data keys may be stale too
	exists, err := c.client.Exists(ctx, metaKey(namespace)).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	str, err := c.client.Get(ctx, dataKey(namespace, key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(str), dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, namespace, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	k := dataKey(namespace, key)
	meta := metaKey(namespace)

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, k, payload, c.ttl)
	pipe.LRem(ctx, meta, 0, k)
	pipe.RPush(ctx, meta, k)
	// the list outlives its keys so Invalidate always sees them
	pipe.Expire(ctx, meta, c.ttl+time.Minute)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *Redis) Invalidate(ctx context.Context, namespaces ...string) error {
	for _, ns := range namespaces {
		meta := metaKey(ns)
		keys, err := c.client.LRange(ctx, meta, 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to list %s keys: %w", ns, err)
		}
		keys = append(keys, meta)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", ns, err)
		}
		c.logger.Debug("cache invalidated", "namespace", ns, "keys", len(keys)-1)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
