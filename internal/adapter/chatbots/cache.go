package chatbots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/repository"
)

const (
	cacheKeyPrefix  = "supportiq:chatbot:"
	defaultCacheTTL = time.Minute
)

// Cache is a Redis read-through cache in front of another ChatbotSource.
// Redis errors degrade to a direct lookup.
type Cache struct {
	next   repository.ChatbotSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ repository.ChatbotSource = (*Cache)(nil)

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewCache wraps next.
func NewCache(next repository.ChatbotSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{next: next, client: client, ttl: ttl, logger: logger.With("component", "chatbot_cache")}
}

// GetChatbot serves from Redis when possible. Missing chatbots are not cached.
func (c *Cache) GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error) {
	key := cacheKeyPrefix + id

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var bot domain.Chatbot
		if jsonErr := json.Unmarshal([]byte(val), &bot); jsonErr == nil {
			return &bot, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "chatbot_id", id)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("chatbot cache read failed", "chatbot_id", id, "error", err)
	}

	bot, err := c.next.GetChatbot(ctx, id)
	if err != nil || bot == nil {
		return bot, err
	}

	data, err := json.Marshal(bot)
	if err == nil {
		err = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("chatbot cache write failed", "chatbot_id", id, "error", err)
	}
	return bot, nil
}

// Invalidate drops the cached entry for id.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, cacheKeyPrefix+id).Err()
}
