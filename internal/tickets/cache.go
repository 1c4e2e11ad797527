package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"fanpass/internal/models"
)

// RedisTicketCache stores assembled ticket views keyed by token id. Views
// expire on their TTL; writes to the details table do not evict them.
type RedisTicketCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisTicketCache(client *redis.Client, ttl time.Duration) *RedisTicketCache {
	return &RedisTicketCache{Client: client, TTL: ttl}
}

func cacheKey(tokenID int64) string {
	return fmt.Sprintf("ticket_info:%d", tokenID)
}

// Get retrieves a cached ticket view. A miss is (nil, nil).
func (c *RedisTicketCache) Get(ctx context.Context, tokenID int64) (*models.TicketInfo, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	infoJSON, err := c.Client.Get(ctx, cacheKey(tokenID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get ticket info from Redis: %w", err)
	}

	var info models.TicketInfo
	if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached ticket info: %w", err)
	}
	return &info, nil
}

// Set stores a ticket view with the cache TTL.
func (c *RedisTicketCache) Set(ctx context.Context, tokenID int64, info *models.TicketInfo) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket info: %w", err)
	}

	if err := c.Client.Set(ctx, cacheKey(tokenID), infoJSON, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set ticket info in Redis: %w", err)
	}
	return nil
}

// Invalidate drops the cached view for a token.
func (c *RedisTicketCache) Invalidate(ctx context.Context, tokenID int64) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := c.Client.Del(ctx, cacheKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate ticket info in Redis: %w", err)
	}
	return nil
}
