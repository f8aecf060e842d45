package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// RecommendationRepo — хранилище рекомендаций в SQLite с тем же контрактом, что и у PostgreSQL.
type RecommendationRepo struct {
	db *DB
}

func NewRecommendationRepo(db *DB) *RecommendationRepo {
	return &RecommendationRepo{db: db}
}

func (r *RecommendationRepo) DeactivateShop(ctx context.Context, shop string) (int64, error) {
	tx, err := txFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recommendations SET is_active = 0, updated_at = ? WHERE shop = ? AND is_active = 1`,
		formatTime(time.Now()), shop,
	)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.RowsAffected()
}

func (r *RecommendationRepo) UpsertBatch(ctx context.Context, recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := txFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (
			shop, run_id, source_product_id, source_title,
			recommended_product_id, recommended_title, recommended_price,
			recommended_image, recommended_category, similarity, priority,
			reasoning, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (shop, source_product_id, recommended_product_id) DO UPDATE SET
			run_id = excluded.run_id,
			source_title = excluded.source_title,
			recommended_title = excluded.recommended_title,
			recommended_price = excluded.recommended_price,
			recommended_image = excluded.recommended_image,
			recommended_category = excluded.recommended_category,
			similarity = excluded.similarity,
			priority = excluded.priority,
			reasoning = excluded.reasoning,
			is_active = 1,
			updated_at = excluded.created_at
	`)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.Shop,
			rec.RunID,
			rec.SourceProductID,
			rec.SourceTitle,
			rec.RecommendedProductID,
			rec.RecommendedTitle,
			rec.RecommendedPrice.String(),
			rec.RecommendedImage,
			rec.RecommendedCategory,
			rec.Similarity,
			rec.Priority,
			rec.Reasoning,
			now,
		); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return nil
}

func (r *RecommendationRepo) GetActive(ctx context.Context, shop, sourceProductID string, limit int) ([]domain.Recommendation, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT
			id, shop, run_id, source_product_id, source_title,
			recommended_product_id, recommended_title, recommended_price,
			recommended_image, recommended_category, similarity, priority,
			reasoning, is_active, created_at, updated_at
		FROM recommendations
		WHERE shop = ? AND source_product_id = ? AND is_active = 1
		ORDER BY priority DESC, similarity DESC
		LIMIT ?
	`, shop, sourceProductID, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Recommendation, 0, limit)
	for rows.Next() {
		var (
			rec       domain.Recommendation
			price     string
			createdAt string
			updatedAt sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.Shop, &rec.RunID, &rec.SourceProductID, &rec.SourceTitle,
			&rec.RecommendedProductID, &rec.RecommendedTitle, &price,
			&rec.RecommendedImage, &rec.RecommendedCategory, &rec.Similarity, &rec.Priority,
			&rec.Reasoning, &rec.IsActive, &createdAt, &updatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		rec.RecommendedPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseNullTime(updatedAt)
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
