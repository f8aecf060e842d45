package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/jimlawless/whereami"
)

type ShopRepo struct {
	db *DB
}

func NewShopRepo(db *DB) *ShopRepo {
	return &ShopRepo{db: db}
}

func (s *ShopRepo) Upsert(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	now := formatTime(time.Now())
	query := `
		INSERT INTO shops (domain, access_token, plan, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (domain) DO UPDATE SET
			access_token = excluded.access_token,
			plan = excluded.plan,
			updated_at = ?
	`

	if _, err := s.db.db.ExecContext(ctx, query, shop.Domain, shop.AccessToken, shop.Plan.String(), now, now); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.Get(ctx, shop.Domain)
}

func (s *ShopRepo) Get(ctx context.Context, domainName string) (*domain.Shop, error) {
	query := `
		SELECT domain, access_token, plan, created_at, updated_at
		FROM shops
		WHERE domain = ?
	`

	var (
		shop      domain.Shop
		plan      string
		createdAt string
		updatedAt sql.NullString
	)
	err := s.db.db.QueryRowContext(ctx, query, domainName).
		Scan(&shop.Domain, &shop.AccessToken, &plan, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrShopNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// неизвестный тариф в базе трактуется как free
	shop.Plan, _ = domain.ParsePlanTier(plan)
	shop.CreatedAt = parseTime(createdAt)
	shop.UpdatedAt = parseNullTime(updatedAt)
	return &shop, nil
}
