package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL is how long a fetched list stays fresh.
const DefaultTTL = 10 * time.Minute

// Cache holds fetched game lists keyed by locale, country and list kind.
// A miss and a backend failure look the same to callers.
type Cache interface {
	Get(ctx context.Context, key string) ([]Game, bool)
	Set(ctx context.Context, key string, games []Game)
}

func cacheKey(locale, country, kind string) string {
	return fmt.Sprintf("%s|%s|%s", locale, country, kind)
}

type memoryEntry struct {
	at    time.Time
	games []Game
}

type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]Game, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.at) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.games, true
}

func (c *MemoryCache) Set(_ context.Context, key string, games []Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{at: c.now(), games: games}
}

// RedisCache shares the lists between bot instances.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, prefix: "epicfreebot:games:", ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]Game, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[RedisCache.Get] key=%s err=%v", key, err)
		}
		return nil, false
	}

	var games []Game
	if err := json.Unmarshal(data, &games); err != nil {
		log.Printf("[RedisCache.Get] decode key=%s err=%v", key, err)
		return nil, false
	}
	return games, true
}

func (r *RedisCache) Set(ctx context.Context, key string, games []Game) {
	data, err := json.Marshal(games)
	if err != nil {
		log.Printf("[RedisCache.Set] encode key=%s err=%v", key, err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		log.Printf("[RedisCache.Set] key=%s err=%v", key, err)
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
