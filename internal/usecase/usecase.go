package usecase

import "context"

type SyncUC interface {
	Sync(ctx context.Context, req *SyncReq) (*SyncRes, error)
}

type RecommendationUC interface {
	GetRecommendations(ctx context.Context, req *GetRecommendationsReq) (*GetRecommendationsRes, error)
}

type ShopUC interface {
	PutShop(ctx context.Context, req *PutShopReq) (*ShopInfo, error)
	GetShop(ctx context.Context, domain string) (*ShopInfo, error)
}
