package converter

import (
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/shopspring/decimal"
)

// RecommendationConverter преобразует записи кэша между usecase и моделью Redis.
type RecommendationConverter struct{}

func NewRecommendationConverter() RecommendationConverter { return RecommendationConverter{} }

func (RecommendationConverter) ToRedisModel(entity *usecase.CachedRecommendations) *CachedRecommendationsRedisModel {
	items := make([]RecommendationItemRedisModel, 0, len(entity.Items))
	for _, it := range entity.Items {
		items = append(items, RecommendationItemRedisModel{
			ID:         it.ID,
			Title:      it.Title,
			Price:      it.Price.String(),
			Image:      it.Image,
			Similarity: it.Similarity,
			Reasoning:  it.Reasoning,
		})
	}
	return &CachedRecommendationsRedisModel{
		Items:    items,
		CachedAt: entity.CachedAt,
	}
}

// ToUseCase возвращает ошибку, если цена в кэше повреждена.
func (RecommendationConverter) ToUseCase(model *CachedRecommendationsRedisModel) (*usecase.CachedRecommendations, error) {
	items := make([]usecase.RecommendationItem, 0, len(model.Items))
	for _, it := range model.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, usecase.RecommendationItem{
			ID:         it.ID,
			Title:      it.Title,
			Price:      price,
			Image:      it.Image,
			Similarity: it.Similarity,
			Reasoning:  it.Reasoning,
		})
	}
	return &usecase.CachedRecommendations{
		Items:    items,
		CachedAt: model.CachedAt,
	}, nil
}
