// Package cache stores generated taboo words in Redis, keyed by session id.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"marry-fun-bot/internal/model"
)

// DefaultNgWordTTL bounds how long generated words outlive their session.
const DefaultNgWordTTL = 24 * time.Hour

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NgWordCache keeps taboo words per session. It is not the source of truth;
// entries may vanish at any time.
type NgWordCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewNgWordCache wraps client. A non-positive ttl uses DefaultNgWordTTL.
func NewNgWordCache(client *redis.Client, prefix string, ttl time.Duration) *NgWordCache {
	if ttl <= 0 {
		ttl = DefaultNgWordTTL
	}
	return &NgWordCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key returns the Redis key for sessionID.
func (c *NgWordCache) Key(sessionID string) string {
	parts := []string{"ngwords", sessionID}
	if c.prefix != "" {
		parts = append([]string{c.prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

// Set stores words for sessionID, replacing any previous entry.
func (c *NgWordCache) Set(ctx context.Context, sessionID string, words []model.NgWord) error {
	data, err := json.Marshal(model.NgWordValues(words))
	if err != nil {
		return fmt.Errorf("failed to marshal ng words: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ng words: %w", err)
	}
	return nil
}

// Get returns the cached words. found is false when there is no entry.
func (c *NgWordCache) Get(ctx context.Context, sessionID string) ([]model.NgWord, bool, error) {
	data, err := c.client.Get(ctx, c.Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read ng words: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("failed to decode ng words: %w", err)
	}
	words, err := model.NewNgWords(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode ng words: %w", err)
	}
	return words, true, nil
}

// Delete drops the entry for sessionID. Missing entries are not an error.
func (c *NgWordCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete ng words: %w", err)
	}
	return nil
}
