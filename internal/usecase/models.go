package usecase

import (
	"strings"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/shopspring/decimal"
)

// SYNC USECASE

// SyncReq — запрос на синхронизацию рекомендаций магазина.
type SyncReq struct {
	Shop string
}

// SyncRes — итог прогона. Ошибки обоснований не делают прогон неуспешным.
type SyncRes struct {
	Success             bool
	Message             string
	RunID               string
	Plan                string
	Stats               domain.SyncStats
	RecommendationError string // пусто, если обоснования сформированы без ошибок
	SnapshotKey         string
	Duration            time.Duration
}

// RECOMMENDATION USECASE

const (
	DefaultRecommendationLimit = 3
	MaxRecommendationLimit     = domain.MaxCandidates
)

// Источник ответа чтения.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceStale    = "stale-cache"
)

// GetRecommendationsReq — запрос рекомендаций для товара. ProductID — число или Shopify GID.
type GetRecommendationsReq struct {
	Shop      string
	ProductID string
	Limit     int
}

type GetRecommendationsRes struct {
	ProductID       string
	Recommendations []RecommendationItem
	Source          string
}

// RecommendationItem — элемент ответа витрине.
type RecommendationItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Similarity float64         `json:"similarity"`
	Reasoning  string          `json:"reasoning"`
}

// CachedRecommendations — запись кэша чтения.
type CachedRecommendations struct {
	Items    []RecommendationItem `json:"items"`
	CachedAt time.Time            `json:"cached_at"`
}

// SHOP USECASE

type PutShopReq struct {
	Domain      string
	AccessToken string
	Plan        string
}

type ShopInfo struct {
	Domain    string
	Plan      string
	Limits    domain.PlanConfig
	HasToken  bool
	CreatedAt time.Time
}

// INFRASTRUCTURE

// Статусы outbox-событий.
const (
	Pending    = "pending"
	Processing = "processing"
	Processed  = "processed"
)

// EventRecommendationsSynced — тип события об успешном прогоне.
const EventRecommendationsSynced = "recommendations.synced"

type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	AggregateID string // домен магазина
	Payload     []byte
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// RecommendationsSyncedPayload — тело события recommendations.synced.
type RecommendationsSyncedPayload struct {
	RunID                 string    `json:"run_id"`
	Shop                  string    `json:"shop"`
	ProductsProcessed     int       `json:"products_processed"`
	RecommendationsStored int       `json:"recommendations_stored"`
	ReasoningErrors       int       `json:"reasoning_errors"`
	FinishedAt            time.Time `json:"finished_at"`
}

type WriteRawMessageReq struct {
	Key       string // домен магазина: события одного магазина попадают в одну партицию
	EventType string
	Payload   []byte
}

// MAPPERS

func NewSyncReq(shop string) *SyncReq {
	return &SyncReq{Shop: strings.TrimSpace(strings.ToLower(shop))}
}

func NewGetRecommendationsReq(shop, productID string, limit int) *GetRecommendationsReq {
	return &GetRecommendationsReq{
		Shop:      strings.TrimSpace(strings.ToLower(shop)),
		ProductID: productID,
		Limit:     limit,
	}
}

func NewRecommendationItem(r domain.Recommendation) RecommendationItem {
	return RecommendationItem{
		ID:         r.RecommendedProductID,
		Title:      r.RecommendedTitle,
		Price:      r.RecommendedPrice,
		Image:      r.RecommendedImage,
		Similarity: r.Similarity,
		Reasoning:  r.Reasoning,
	}
}

func NewPutShopReq(domain, token, plan string) *PutShopReq {
	return &PutShopReq{
		Domain:      strings.TrimSpace(strings.ToLower(domain)),
		AccessToken: token,
		Plan:        plan,
	}
}

func NewShopInfo(s *domain.Shop) *ShopInfo {
	return &ShopInfo{
		Domain:    s.Domain,
		Plan:      s.Plan.String(),
		Limits:    s.Plan.Config(),
		HasToken:  s.AccessToken != "",
		CreatedAt: s.CreatedAt,
	}
}

func NewWriteRawMessageReq(key, eventType string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventType: eventType,
		Payload:   payload,
	}
}
