package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
)

// ShopUseCase ведёт реестр магазинов: токен доступа и тариф.
type ShopUseCase struct {
	repo   ShopRepository
	logger logger.Logger
}

func NewShopUseCase(repo ShopRepository, logger logger.Logger) *ShopUseCase {
	return &ShopUseCase{
		repo:   repo,
		logger: logger,
	}
}

// PutShop создаёт магазин или обновляет токен и тариф.
func (s *ShopUseCase) PutShop(ctx context.Context, req *PutShopReq) (*ShopInfo, error) {
	const op = "ShopUseCase.PutShop"

	if req == nil || req.Domain == "" {
		return nil, e.Wrap(op, e.ErrShopRequired)
	}
	if strings.ContainsAny(req.Domain, "/ ") {
		return nil, e.Wrap(op, e.ErrStatusBadRequest)
	}

	plan, err := domain.ParsePlanTier(req.Plan)
	if err != nil {
		return nil, e.Wrap(op, errors.Join(e.ErrInvalidPlan, err))
	}

	shop, err := s.repo.Upsert(ctx, domain.NewShop(req.Domain, req.AccessToken, plan))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.logger.Infof("shop %s saved with plan %s", shop.Domain, shop.Plan)
	return NewShopInfo(shop), nil
}

func (s *ShopUseCase) GetShop(ctx context.Context, domainName string) (*ShopInfo, error) {
	const op = "ShopUseCase.GetShop"

	if domainName == "" {
		return nil, e.Wrap(op, e.ErrShopRequired)
	}

	shop, err := s.repo.Get(ctx, strings.ToLower(strings.TrimSpace(domainName)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewShopInfo(shop), nil
}
