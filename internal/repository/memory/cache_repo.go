// Package memory — кэш рекомендаций внутри процесса, когда Redis не настроен.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = time.Minute

type CacheRepo struct {
	cache *gocache.Cache
	ttl   time.Duration

	mu          sync.Mutex
	generations map[string]int64
}

// NewCacheRepo создаёт кэш. При ttl <= 0 записи живут до инвалидации.
func NewCacheRepo(ttl time.Duration) *CacheRepo {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &CacheRepo{
		cache:       gocache.New(ttl, cleanupInterval),
		ttl:         ttl,
		generations: make(map[string]int64),
	}
}

func (c *CacheRepo) Get(_ context.Context, key string) (*usecase.CachedRecommendations, bool, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	entry, ok := v.(*usecase.CachedRecommendations)
	return entry, ok, nil
}

func (c *CacheRepo) Set(_ context.Context, key string, entry *usecase.CachedRecommendations) error {
	c.cache.Set(key, entry, c.ttl)
	return nil
}

func (c *CacheRepo) Generation(_ context.Context, shop string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[shop], nil
}

func (c *CacheRepo) InvalidateShop(_ context.Context, shop string) error {
	c.mu.Lock()
	c.generations[shop]++
	c.mu.Unlock()

	prefix := usecase.InvalidationPrefix(shop)
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
	return nil
}

// Close сбрасывает все записи. Janitor go-cache останавливается вместе со сборкой кэша.
func (c *CacheRepo) Close(_ context.Context) error {
	c.cache.Flush()
	return nil
}
