package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopModel представляет запись таблицы shops в PostgreSQL.
type ShopModel struct {
	Domain      string     `db:"domain"`
	AccessToken string     `db:"access_token"`
	Plan        string     `db:"plan"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// RecommendationModel представляет запись таблицы recommendations в PostgreSQL.
type RecommendationModel struct {
	ID                   int64           `db:"id"`
	Shop                 string          `db:"shop"`
	RunID                string          `db:"run_id"`
	SourceProductID      string          `db:"source_product_id"`
	SourceTitle          string          `db:"source_title"`
	RecommendedProductID string          `db:"recommended_product_id"`
	RecommendedTitle     string          `db:"recommended_title"`
	RecommendedPrice     decimal.Decimal `db:"recommended_price"`
	RecommendedImage     string          `db:"recommended_image"`
	RecommendedCategory  string          `db:"recommended_category"`
	Similarity           float64         `db:"similarity"`
	Priority             int             `db:"priority"`
	Reasoning            string          `db:"reasoning"`
	IsActive             bool            `db:"is_active"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            *time.Time      `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
