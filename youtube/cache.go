package youtube

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SuggestionCache stores search results keyed by query and result count.
type SuggestionCache interface {
	Get(ctx context.Context, query string, maxResults int) ([]Video, bool)
	Set(ctx context.Context, query string, maxResults int, videos []Video)
}

// RedisCache is a SuggestionCache backed by redis. Cache failures are
// logged and treated as misses.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to redisURL (redis://host:port/db).
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) Get(ctx context.Context, query string, maxResults int) ([]Video, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(query, maxResults)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("YT: suggestion cache read failed: %v", err)
		}
		return nil, false
	}

	var videos []Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, false
	}
	return videos, true
}

func (c *RedisCache) Set(ctx context.Context, query string, maxResults int, videos []Video) {
	data, err := json.Marshal(videos)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query, maxResults), data, c.ttl).Err(); err != nil {
		log.Printf("YT: suggestion cache write failed: %v", err)
	}
}

func cacheKey(query string, maxResults int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", normalized, maxResults)))
	return "stagepass:yt:suggest:" + hex.EncodeToString(hash[:16])
}
