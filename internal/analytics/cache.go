package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "analytics:version"

	// BumpChannel carries version bumps published by rate or record writers.
	BumpChannel = "vinylops.analytics.bump"
)

// Cache stores aggregation results in Redis under versioned keys. Bumping the
// version orphans every previously cached result.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		ver = 0
	case err != nil:
		return 0, fmt.Errorf("analytics: cache version: %w", err)
	}
	if ver > 0 {
		return ver, nil
	}
	if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, fmt.Errorf("analytics: init cache version: %w", err)
	}
	return 1, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":v" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON decodes the cached value at key into dest, or runs loader and
// stores its JSON encoding for the cache TTL.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("analytics: cache loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("analytics: cache get: %w", err)
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.enabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("analytics: cache set: %w", err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached result and announces the new version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("analytics: bump: %w", err)
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows bumps published on channel by other writers
// until ctx is cancelled. A numeric payload raises the local version to at
// least that value; any other payload increments it.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("analytics: subscribe %s: %w", channel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				c.applyBump(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

func (c *Cache) applyBump(ctx context.Context, payload string) {
	announced, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		_ = c.client.Incr(ctx, cacheVersionKey).Err()
		return
	}
	current, err := c.Version(ctx)
	if err != nil || announced <= current {
		return
	}
	_ = c.client.Set(ctx, cacheVersionKey, announced, 0).Err()
}

func summaryKey(req Request) []string {
	return []string{"analytics", "summary", string(req.Kind), string(req.Unit), token(req.Start), token(req.End)}
}

func token(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
