package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/jitter"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

const defaultReadAttempts = 4

// RecommendationUseCase отдаёт рекомендации витрине через кэш с повторами к хранилищу.
type RecommendationUseCase struct {
	repo     RecommendationRepository
	cache    RecommendationCache // nil — без кэша
	freshTTL time.Duration
	attempts int
	backoff  jitter.Policy
	now      func() time.Time
	logger   logger.Logger
}

func NewRecommendationUseCase(
	repo RecommendationRepository,
	cache RecommendationCache,
	freshTTL time.Duration,
	logger logger.Logger,
) *RecommendationUseCase {
	return &RecommendationUseCase{
		repo:     repo,
		cache:    cache,
		freshTTL: freshTTL,
		attempts: defaultReadAttempts,
		// 1s, 2s, 4s ... но не больше 5s
		backoff: jitter.NewPolicy(1*time.Second, 5*time.Second, jitter.DefaultJitter),
		now:     time.Now,
		logger:  logger,
	}
}

// WithRetry подменяет число попыток и политику задержек.
func (r *RecommendationUseCase) WithRetry(attempts int, p jitter.Policy) *RecommendationUseCase {
	if attempts > 0 {
		r.attempts = attempts
	}
	r.backoff = p
	return r
}

// GetRecommendations возвращает до limit рекомендаций (по умолчанию 3, максимум 5).
func (r *RecommendationUseCase) GetRecommendations(ctx context.Context, req *GetRecommendationsReq) (*GetRecommendationsRes, error) {
	const op = "RecommendationUseCase.GetRecommendations"

	productID, limit, err := r.validate(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key, useCache := r.cacheKey(ctx, req.Shop, productID)

	var stale *CachedRecommendations
	if useCache {
		entry, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warnf("recommendation cache get failed for %s: %v", key, err)
		}
		if ok && entry != nil {
			if r.now().Sub(entry.CachedAt) < r.freshTTL {
				return newGetRecommendationsRes(productID, entry.Items, limit, SourceCache), nil
			}
			stale = entry
		}
	}

	rows, err := r.loadWithRetry(ctx, req.Shop, productID)
	if err != nil {
		if stale != nil && ctx.Err() == nil {
			r.logger.Warnf("serving stale recommendations for %s after store failure: %v", key, err)
			return newGetRecommendationsRes(productID, stale.Items, limit, SourceStale), nil
		}
		return nil, e.Wrap(op, err)
	}

	items := make([]RecommendationItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, NewRecommendationItem(row))
	}

	if useCache {
		entry := &CachedRecommendations{Items: items, CachedAt: r.now().UTC()}
		if err := r.cache.Set(ctx, key, entry); err != nil {
			r.logger.Warnf("recommendation cache set failed for %s: %v", key, err)
		}
	}

	return newGetRecommendationsRes(productID, items, limit, SourceDatabase), nil
}

func (r *RecommendationUseCase) validate(req *GetRecommendationsReq) (string, int, error) {
	if req == nil || req.Shop == "" {
		return "", 0, e.ErrShopRequired
	}
	if req.ProductID == "" {
		return "", 0, e.ErrProductIDRequired
	}

	productID, err := domain.NormalizeProductID(req.ProductID)
	if err != nil {
		return "", 0, errors.Join(e.ErrInvalidProductID, err)
	}

	limit := req.Limit
	switch {
	case limit < 0:
		return "", 0, e.ErrInvalidLimit
	case limit == 0:
		limit = DefaultRecommendationLimit
	case limit > MaxRecommendationLimit:
		limit = MaxRecommendationLimit
	}

	return productID, limit, nil
}

// loadWithRetry читает полный набор (до MaxRecommendationLimit), чтобы одна запись кэша служила любому limit.
func (r *RecommendationUseCase) loadWithRetry(ctx context.Context, shop, productID string) ([]domain.Recommendation, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		rows, err := r.repo.GetActive(ctx, shop, productID, MaxRecommendationLimit)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if attempt == r.attempts-1 {
			break
		}

		sleepTime := r.backoff.Delay(attempt)
		r.logger.Warnf("recommendation read failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		if err := jitter.Sleep(ctx, sleepTime); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// cacheKey строит ключ с текущим поколением кэша магазина. Без поколения кэш не используется.
func (r *RecommendationUseCase) cacheKey(ctx context.Context, shop, productID string) (string, bool) {
	if r.cache == nil {
		return "", false
	}

	gen, err := r.cache.Generation(ctx, shop)
	if err != nil {
		r.logger.Warnf("recommendation cache generation failed for %s: %v", shop, err)
		return "", false
	}

	return CacheKey(shop, gen, productID), true
}

// InvalidationPrefix — префикс ключей кэша магазина.
func InvalidationPrefix(shop string) string {
	return shop + "|"
}

// CacheKey — ключ кэша ответа: <shop>|<generation>|<product>.
func CacheKey(shop string, generation int64, productID string) string {
	return InvalidationPrefix(shop) + strconv.FormatInt(generation, 10) + "|" + productID
}

func newGetRecommendationsRes(productID string, items []RecommendationItem, limit int, source string) *GetRecommendationsRes {
	if len(items) > limit {
		items = items[:limit]
	}
	return &GetRecommendationsRes{
		ProductID:       productID,
		Recommendations: items,
		Source:          source,
	}
}
