package usecase

import (
	"context"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
)

// CatalogSource отдаёт товары магазина. При limit <= 0 лимита нет.
type CatalogSource interface {
	FetchProducts(ctx context.Context, shop *domain.Shop, limit int) ([]domain.Product, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Ranker interface {
	Rank(ctx context.Context, vectors []domain.EmbeddingVector, topN int) (map[string][]domain.SimilarityEntry, error)
}

// SnapshotExporter сохраняет выгрузку прогона и возвращает её ключ.
type SnapshotExporter interface {
	Export(ctx context.Context, snapshot *domain.SyncSnapshot) (string, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
