package pgdb

import (
	"context"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// RecommendationRepo реализует хранилище рекомендаций поверх PostgreSQL.
// Запись выполняется только внутри транзакции из контекста.
type RecommendationRepo struct {
	pool *pgxpool.Pool
	conv converter.RecommendationConverter
}

func NewRecommendationRepo(pool *pgxpool.Pool, conv converter.RecommendationConverter) *RecommendationRepo {
	return &RecommendationRepo{
		pool: pool,
		conv: conv,
	}
}

func (r *RecommendationRepo) DeactivateShop(ctx context.Context, shop string) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE recommendations
		SET is_active = false, updated_at = NOW()
		WHERE shop = $1 AND is_active
	`

	tag, err := tx.Exec(ctx, query, shop)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

// UpsertBatch вставляет строки пачкой. Повтор той же пары реактивирует строку и обновляет её поля,
// поэтому повторная запись прогона не создаёт дубликатов.
func (r *RecommendationRepo) UpsertBatch(ctx context.Context, recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO recommendations (
			shop,
			run_id,
			source_product_id,
			source_title,
			recommended_product_id,
			recommended_title,
			recommended_price,
			recommended_image,
			recommended_category,
			similarity,
			priority,
			reasoning,
			is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, true)
		ON CONFLICT (shop, source_product_id, recommended_product_id)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			source_title = EXCLUDED.source_title,
			recommended_title = EXCLUDED.recommended_title,
			recommended_price = EXCLUDED.recommended_price,
			recommended_image = EXCLUDED.recommended_image,
			recommended_category = EXCLUDED.recommended_category,
			similarity = EXCLUDED.similarity,
			priority = EXCLUDED.priority,
			reasoning = EXCLUDED.reasoning,
			is_active = true,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for i := range recs {
		m := r.conv.ToModel(&recs[i])
		batch.Queue(query,
			m.Shop,
			m.RunID,
			m.SourceProductID,
			m.SourceTitle,
			m.RecommendedProductID,
			m.RecommendedTitle,
			m.RecommendedPrice,
			m.RecommendedImage,
			m.RecommendedCategory,
			m.Similarity,
			m.Priority,
			m.Reasoning,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetActive читает активные рекомендации товара вне транзакции.
func (r *RecommendationRepo) GetActive(ctx context.Context, shop, sourceProductID string, limit int) ([]domain.Recommendation, error) {
	query := `
		SELECT
			id, shop, run_id, source_product_id, source_title,
			recommended_product_id, recommended_title, recommended_price,
			recommended_image, recommended_category, similarity, priority,
			reasoning, is_active, created_at, updated_at
		FROM recommendations
		WHERE shop = $1 AND source_product_id = $2 AND is_active
		ORDER BY priority DESC, similarity DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, shop, sourceProductID, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Recommendation, 0, limit)
	for rows.Next() {
		var m converter.RecommendationModel
		if err := rows.Scan(
			&m.ID, &m.Shop, &m.RunID, &m.SourceProductID, &m.SourceTitle,
			&m.RecommendedProductID, &m.RecommendedTitle, &m.RecommendedPrice,
			&m.RecommendedImage, &m.RecommendedCategory, &m.Similarity, &m.Priority,
			&m.Reasoning, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, r.conv.ToEntity(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
