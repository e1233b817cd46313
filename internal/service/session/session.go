// Package session 提供会话最近对话的 Redis 缓存
// 缓存未命中时调用方回落到关系库，缓存失败不影响对话流程
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// 会话在 Redis 中的过期时间（24小时）
	sessionTTL = 24 * time.Hour
	// Redis key 前缀
	sessionKeyPrefix = "session:"
	// 每个会话最多缓存的消息条数
	maxCachedTurns = 50
)

// Turn 一条缓存的对话消息
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Cache 会话对话缓存
type Cache struct {
	redis *redis.Client
}

// NewCache 创建会话缓存
func NewCache(redisClient *redis.Client) *Cache {
	return &Cache{redis: redisClient}
}

// Recent 获取会话缓存的最近 limit 条消息（按时间正序）
// 缓存未配置或未命中时返回 (nil, false)
func (c *Cache) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, bool) {
	if c.redis == nil || sessionID == "" {
		return nil, false
	}

	data, err := c.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		return nil, false
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, false
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}
	return turns, true
}

// Append 向会话缓存追加消息并刷新过期时间
func (c *Cache) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if c.redis == nil || sessionID == "" {
		return nil
	}

	key := sessionKey(sessionID)

	existing, _ := c.Recent(ctx, sessionID, 0)
	existing = append(existing, turns...)
	if len(existing) > maxCachedTurns {
		existing = existing[len(existing)-maxCachedTurns:]
	}

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal session turns: %w", err)
	}

	if err := c.redis.Set(ctx, key, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache session turns: %w", err)
	}
	return nil
}

// Invalidate 删除会话缓存
func (c *Cache) Invalidate(ctx context.Context, sessionID string) {
	if c.redis == nil || sessionID == "" {
		return
	}
	c.redis.Del(ctx, sessionKey(sessionID))
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
