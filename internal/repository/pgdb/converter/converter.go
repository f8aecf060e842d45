package converter

import (
	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
)

// ShopConverter преобразует Shop между domain и моделью PostgreSQL.
type ShopConverter struct{}

func NewShopConverter() ShopConverter { return ShopConverter{} }

func (ShopConverter) ToModel(entity *domain.Shop) *ShopModel {
	return &ShopModel{
		Domain:      entity.Domain,
		AccessToken: entity.AccessToken,
		Plan:        entity.Plan.String(),
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

// ToEntity разбирает тариф; неизвестное значение в базе трактуется как free.
func (ShopConverter) ToEntity(model *ShopModel) *domain.Shop {
	plan, _ := domain.ParsePlanTier(model.Plan)
	return &domain.Shop{
		Domain:      model.Domain,
		AccessToken: model.AccessToken,
		Plan:        plan,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// RecommendationConverter преобразует Recommendation между domain и моделью PostgreSQL.
type RecommendationConverter struct{}

func NewRecommendationConverter() RecommendationConverter { return RecommendationConverter{} }

func (RecommendationConverter) ToModel(entity *domain.Recommendation) *RecommendationModel {
	return &RecommendationModel{
		ID:                   entity.ID,
		Shop:                 entity.Shop,
		RunID:                entity.RunID,
		SourceProductID:      entity.SourceProductID,
		SourceTitle:          entity.SourceTitle,
		RecommendedProductID: entity.RecommendedProductID,
		RecommendedTitle:     entity.RecommendedTitle,
		RecommendedPrice:     entity.RecommendedPrice,
		RecommendedImage:     entity.RecommendedImage,
		RecommendedCategory:  entity.RecommendedCategory,
		Similarity:           entity.Similarity,
		Priority:             entity.Priority,
		Reasoning:            entity.Reasoning,
		IsActive:             entity.IsActive,
		CreatedAt:            entity.CreatedAt,
		UpdatedAt:            entity.UpdatedAt,
	}
}

func (RecommendationConverter) ToEntity(model *RecommendationModel) domain.Recommendation {
	return domain.Recommendation{
		ID:                   model.ID,
		Shop:                 model.Shop,
		RunID:                model.RunID,
		SourceProductID:      model.SourceProductID,
		SourceTitle:          model.SourceTitle,
		RecommendedProductID: model.RecommendedProductID,
		RecommendedTitle:     model.RecommendedTitle,
		RecommendedPrice:     model.RecommendedPrice,
		RecommendedImage:     model.RecommendedImage,
		RecommendedCategory:  model.RecommendedCategory,
		Similarity:           model.Similarity,
		Priority:             model.Priority,
		Reasoning:            model.Reasoning,
		IsActive:             model.IsActive,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

// OutboxEventConverter преобразует OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter { return OutboxEventConverter{} }

func (OutboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      entity.Status,
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	out := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		out = append(out, c.ToEntity(m))
	}
	return out
}
