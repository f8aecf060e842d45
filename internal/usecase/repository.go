package usecase

import (
	"context"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
)

// Transactor выполняет fn в одной транзакции; репозитории берут её из ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RecommendationRepository interface {
	// DeactivateShop помечает все активные строки магазина неактивными.
	DeactivateShop(ctx context.Context, shop string) (int64, error)
	// UpsertBatch вставляет строки или реактивирует существующие по (shop, source, recommended).
	UpsertBatch(ctx context.Context, recs []domain.Recommendation) error
	// GetActive возвращает активные строки товара по priority DESC, similarity DESC.
	GetActive(ctx context.Context, shop, sourceProductID string, limit int) ([]domain.Recommendation, error)
}

type ShopRepository interface {
	Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error)
	Get(ctx context.Context, domain string) (*domain.Shop, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// MarkAsPending возвращает событие в очередь после неудачной отправки.
	MarkAsPending(ctx context.Context, id int64) error
}

// RecommendationCache хранит ответы чтения. Запись живёт дольше, чем считается свежей.
// Generation входит в ключ; InvalidateShop увеличивает её, поэтому запись чтения,
// начатого до инвалидации, попадает под старый ключ и больше не читается.
type RecommendationCache interface {
	Get(ctx context.Context, key string) (*CachedRecommendations, bool, error)
	Set(ctx context.Context, key string, entry *CachedRecommendations) error
	Generation(ctx context.Context, shop string) (int64, error)
	InvalidateShop(ctx context.Context, shop string) error
}
