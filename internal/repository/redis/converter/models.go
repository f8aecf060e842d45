package converter

import "time"

// RecommendationItemRedisModel — элемент ответа в кэше. Цена хранится строкой без потери точности.
type RecommendationItemRedisModel struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Price      string  `json:"price"`
	Image      string  `json:"image,omitempty"`
	Similarity float64 `json:"similarity"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// CachedRecommendationsRedisModel — значение ключа кэша рекомендаций.
type CachedRecommendationsRedisModel struct {
	Items    []RecommendationItemRedisModel `json:"items"`
	CachedAt time.Time                      `json:"cached_at"`
}
