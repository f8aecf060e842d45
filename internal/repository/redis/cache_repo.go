package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/repository/redis/converter"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/clients"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "recs:"
	genPrefix = "recs-gen:"
	scanCount = 200
)

// CacheRepo — кэш ответов чтения рекомендаций в Redis.
// TTL ключа равен сроку, в течение которого запись ещё может быть отдана как устаревшая.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.RecommendationConverter
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.RecommendationConverter,
	ttl time.Duration, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		ttl:    ttl,
		logger: logger,
	}
}

// Get возвращает запись кэша. Промах и повреждённое значение не считаются ошибкой.
func (c *CacheRepo) Get(ctx context.Context, key string) (*usecase.CachedRecommendations, bool, error) {
	data, err := c.client.Client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, false, nil
		}
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CachedRecommendationsRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed for %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, false, nil
	}

	entry, err := c.conv.ToUseCase(&model)
	if err != nil {
		c.logger.Warnf("Redis value corrupted for %s: %v", key, e.Wrap(whereami.WhereAmI(), err))
		c.drop(ctx, key)
		return nil, false, nil
	}

	return entry, true, nil
}

func (c *CacheRepo) Set(ctx context.Context, key string, entry *usecase.CachedRecommendations) error {
	data, err := json.Marshal(c.conv.ToRedisModel(entry))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Generation возвращает поколение кэша магазина; отсутствующий ключ означает 0.
func (c *CacheRepo) Generation(ctx context.Context, shop string) (int64, error) {
	gen, err := c.client.Client.Get(ctx, genPrefix+shop).Int64()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return 0, nil
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}
	return gen, nil
}

// InvalidateShop увеличивает поколение магазина и удаляет его ключи. SCAN не блокирует Redis в отличие от KEYS.
func (c *CacheRepo) InvalidateShop(ctx context.Context, shop string) error {
	if err := c.client.Client.Incr(ctx, genPrefix+shop).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	pattern := redisKey(escapePattern(usecase.InvalidationPrefix(shop))) + "*"

	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if len(keys) > 0 {
			n, err := c.client.Client.Del(ctx, keys...).Result()
			if err != nil {
				return e.Wrap(whereami.WhereAmI(), err)
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debugf("invalidated %d cached recommendation keys for %s", deleted, shop)
	return nil
}

func (c *CacheRepo) drop(ctx context.Context, key string) {
	if err := c.client.Client.Del(ctx, redisKey(key)).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

func redisKey(key string) string {
	return keyPrefix + key
}

// escapePattern экранирует спецсимволы glob-шаблона SCAN MATCH.
func escapePattern(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}
