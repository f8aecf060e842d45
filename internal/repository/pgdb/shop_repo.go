package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ShopRepo хранит реестр магазинов в PostgreSQL.
type ShopRepo struct {
	pool *pgxpool.Pool
	conv converter.ShopConverter
}

func NewShopRepo(pool *pgxpool.Pool, conv converter.ShopConverter) *ShopRepo {
	return &ShopRepo{
		pool: pool,
		conv: conv,
	}
}

// Upsert создаёт магазин или обновляет токен и тариф. created_at не меняется.
func (s *ShopRepo) Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	model := s.conv.ToModel(shop)
	query := `
		INSERT INTO shops (domain, access_token, plan)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			plan = EXCLUDED.plan,
			updated_at = NOW()
		RETURNING domain, access_token, plan, created_at, updated_at
	`

	var saved converter.ShopModel
	err := s.pool.QueryRow(ctx, query, model.Domain, model.AccessToken, model.Plan).
		Scan(&saved.Domain, &saved.AccessToken, &saved.Plan, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(&saved), nil
}

func (s *ShopRepo) Get(ctx context.Context, domainName string) (*domain.Shop, error) {
	query := `
		SELECT domain, access_token, plan, created_at, updated_at
		FROM shops
		WHERE domain = $1
	`

	var model converter.ShopModel
	err := s.pool.QueryRow(ctx, query, domainName).
		Scan(&model.Domain, &model.AccessToken, &model.Plan, &model.CreatedAt, &model.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrShopNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(&model), nil
}
