package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/pipeline"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/DRSN-tech/cartwhisper/pkg/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SyncOptions — параметры прогона, не зависящие от тарифа.
type SyncOptions struct {
	TopN           int
	MinCandidates  int
	ReasoningLimit int           // верхняя граница K поверх лимита тарифа
	Timeout        time.Duration // 0: без ограничения
}

// SyncUseCase выполняет прогон: каталог -> эмбеддинги -> ранжирование -> фильтр -> обоснования -> сохранение.
type SyncUseCase struct {
	shopRepo   ShopRepository
	catalog    CatalogSource
	embedder   Embedder
	ranker     Ranker
	enricher   *pipeline.Enricher
	recRepo    RecommendationRepository
	transactor Transactor
	outboxRepo OutboxRepository    // nil — события не пишутся
	cache      RecommendationCache // nil — кэш не используется
	exporter   SnapshotExporter    // nil — выгрузка выключена
	opts       SyncOptions
	logger     logger.Logger

	running sync.Map // домен магазина -> struct{}
}

func NewSyncUseCase(
	shopRepo ShopRepository,
	catalog CatalogSource,
	embedder Embedder,
	ranker Ranker,
	enricher *pipeline.Enricher,
	recRepo RecommendationRepository,
	transactor Transactor,
	outboxRepo OutboxRepository,
	cache RecommendationCache,
	exporter SnapshotExporter,
	opts SyncOptions,
	logger logger.Logger,
) *SyncUseCase {
	if opts.TopN <= 0 {
		opts.TopN = pipeline.DefaultTopN
	}
	if opts.MinCandidates <= 0 {
		opts.MinCandidates = pipeline.DefaultMinCandidates
	}

	return &SyncUseCase{
		shopRepo:   shopRepo,
		catalog:    catalog,
		embedder:   embedder,
		ranker:     ranker,
		enricher:   enricher,
		recRepo:    recRepo,
		transactor: transactor,
		outboxRepo: outboxRepo,
		cache:      cache,
		exporter:   exporter,
		opts:       opts,
		logger:     logger,
	}
}

// Sync выполняет полный прогон для магазина. Фатальная ошибка любого этапа до сохранения
// возвращается как error, и предыдущий активный набор рекомендаций не меняется.
func (s *SyncUseCase) Sync(ctx context.Context, req *SyncReq) (res *SyncRes, err error) {
	const op = "SyncUseCase.Sync"

	if req == nil || req.Shop == "" {
		return nil, e.Wrap(op, e.ErrShopRequired)
	}

	if _, busy := s.running.LoadOrStore(req.Shop, struct{}{}); busy {
		return nil, e.Wrap(op, e.ErrSyncInProgress)
	}
	defer s.running.Delete(req.Shop)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	log := s.logger.With("shop", req.Shop, "run_id", runID)

	ctx, span := tracing.Start(ctx, "sync.run",
		attribute.String("shop", req.Shop),
		attribute.String("run_id", runID),
	)
	defer func() { tracing.End(span, err) }()

	shop, err := s.shopRepo.Get(ctx, req.Shop)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	plan := shop.Plan.Config()

	products, err := s.fetchCatalog(ctx, shop, plan)
	if err != nil {
		log.Errorf(err, "catalog fetch failed")
		return nil, e.Wrap(op, err)
	}

	catalog := domain.NewCatalog(products)
	if catalog.Duplicates() > 0 {
		log.Warnf("catalog contains %d duplicate product ids, first occurrence kept", catalog.Duplicates())
	}

	res = &SyncRes{
		Success: true,
		RunID:   runID,
		Plan:    shop.Plan.String(),
	}

	if catalog.Len() == 0 {
		res.Message = "catalog is empty, nothing to sync"
		res.Duration = time.Since(startedAt)
		log.Infof("empty catalog, previous recommendations left untouched")
		return res, nil
	}

	vectors, err := s.embedAll(ctx, catalog)
	if err != nil {
		log.Errorf(err, "embedding failed, run aborted")
		return nil, e.Wrap(op, err)
	}
	res.Stats.ProductsProcessed = len(vectors)

	ranked, err := s.rank(ctx, vectors)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	res.Stats.SimilaritiesComputed = pipeline.PairCount(len(vectors))

	records := s.filterAll(ctx, req.Shop, catalog, ranked, plan, &res.Stats)

	enrich := s.enrich(ctx, records, plan)
	res.Stats.ReasoningGenerated = enrich.Generated
	res.Stats.ReasoningFallbacks = enrich.Fallbacks
	res.Stats.ReasoningErrors = enrich.Fallbacks
	if enrich.Err != nil {
		res.RecommendationError = fmt.Sprintf("reasoning failed for %d product(s): %v", enrich.Fallbacks, enrich.Err)
	}

	// обоснования могли деградировать из-за отмены, сохранять такой прогон нельзя
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	recs := domain.ToRecommendations(runID, records)
	if err := s.persist(ctx, req.Shop, runID, recs, res); err != nil {
		log.Errorf(err, "persist failed, previous recommendations kept")
		return nil, e.Wrap(op, err)
	}
	res.Stats.RecommendationsStored = len(recs)

	s.invalidateCache(ctx, req.Shop)
	res.SnapshotKey = s.exportSnapshot(ctx, runID, shop, startedAt, records, res.Stats)

	res.Duration = time.Since(startedAt)
	res.Message = fmt.Sprintf("synced %d products, stored %d recommendations", res.Stats.ProductsProcessed, res.Stats.RecommendationsStored)
	log.Infof(
		"sync finished in %v: products=%d pairs=%d kept=%d filtered=%d low=%d reasoning=%d fallbacks=%d",
		res.Duration,
		res.Stats.ProductsProcessed,
		res.Stats.SimilaritiesComputed,
		res.Stats.CandidatesKept,
		res.Stats.CandidatesFiltered,
		res.Stats.LowCandidateProducts,
		res.Stats.ReasoningGenerated,
		res.Stats.ReasoningFallbacks,
	)

	return res, nil
}

func (s *SyncUseCase) fetchCatalog(ctx context.Context, shop *domain.Shop, plan domain.PlanConfig) (products []domain.Product, err error) {
	ctx, span := tracing.Start(ctx, "sync.catalog")
	defer func() { tracing.End(span, err) }()

	products, err = s.catalog.FetchProducts(ctx, shop, plan.MaxProducts)
	if err != nil {
		if e.IsFatal(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", e.ErrCatalogFetch, err)
	}

	if plan.MaxProducts > 0 && len(products) > plan.MaxProducts {
		products = products[:plan.MaxProducts]
	}
	span.SetAttributes(attribute.Int("products", len(products)))
	return products, nil
}

// embedAll считает эмбеддинги последовательно. Любая ошибка прерывает прогон.
func (s *SyncUseCase) embedAll(ctx context.Context, catalog *domain.Catalog) (vectors []domain.EmbeddingVector, err error) {
	ctx, span := tracing.Start(ctx, "sync.embed")
	defer func() { tracing.End(span, err) }()

	products := catalog.Products()
	vectors = make([]domain.EmbeddingVector, 0, len(products))
	for i := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := s.embedder.Embed(ctx, pipeline.ProjectText(&products[i]))
		if err != nil {
			if !e.IsFatal(err) {
				err = fmt.Errorf("%w: %v", e.ErrEmbeddingFailed, err)
			}
			return nil, fmt.Errorf("product %s (%d of %d): %w", products[i].ID, i+1, len(products), err)
		}

		vectors = append(vectors, domain.NewEmbeddingVector(products[i].ID, vec))
	}

	return vectors, nil
}

func (s *SyncUseCase) rank(ctx context.Context, vectors []domain.EmbeddingVector) (ranked map[string][]domain.SimilarityEntry, err error) {
	ctx, span := tracing.Start(ctx, "sync.rank", attribute.Int("vectors", len(vectors)))
	defer func() { tracing.End(span, err) }()

	return s.ranker.Rank(ctx, vectors, s.opts.TopN)
}

func (s *SyncUseCase) filterAll(
	ctx context.Context,
	shop string,
	catalog *domain.Catalog,
	ranked map[string][]domain.SimilarityEntry,
	plan domain.PlanConfig,
	stats *domain.SyncStats,
) []domain.RecommendationRecord {
	_, span := tracing.Start(ctx, "sync.filter")
	defer span.End()

	filter := pipeline.NewCandidateFilter(plan.RecommendationsPerProduct, s.opts.MinCandidates)
	products := catalog.Products()
	records := make([]domain.RecommendationRecord, 0, len(products))

	for i := range products {
		src := &products[i]
		fr := filter.Filter(src, ranked[src.ID], catalog)

		rec := domain.NewRecommendationRecord(shop, src, fr.Candidates)
		rec.LowCandidates = fr.LowCandidates
		records = append(records, rec)

		stats.CandidatesKept += len(fr.Candidates)
		stats.CandidatesFiltered += fr.Rejected()
		stats.RejectedByPrice += fr.RejectedPrice
		stats.RejectedByCeiling += fr.RejectedCeiling
		stats.RejectedByCategory += fr.RejectedCategory
		stats.UnknownSkipped += fr.UnknownSkipped
		if fr.LowCandidates {
			stats.LowCandidateProducts++
			s.logger.Debugf("low candidates for %s: kept=%d price=%d ceiling=%d category=%d",
				src.ID, len(fr.Candidates), fr.RejectedPrice, fr.RejectedCeiling, fr.RejectedCategory)
		}
	}

	if stats.LowCandidateProducts > 0 {
		s.logger.Warnf("%s: %d of %d products have fewer than %d candidates",
			shop, stats.LowCandidateProducts, len(records), s.opts.MinCandidates)
	}

	return records
}

func (s *SyncUseCase) enrich(ctx context.Context, records []domain.RecommendationRecord, plan domain.PlanConfig) pipeline.EnrichResult {
	ctx, span := tracing.Start(ctx, "sync.reasoning")
	defer span.End()

	limit := 0
	if plan.AIReasoning {
		limit = plan.ReasoningLimit
		if s.opts.ReasoningLimit > 0 && s.opts.ReasoningLimit < limit {
			limit = s.opts.ReasoningLimit
		}
	}

	res := s.enricher.Enrich(ctx, records, limit)
	span.SetAttributes(
		attribute.Int("generated", res.Generated),
		attribute.Int("fallbacks", res.Fallbacks),
	)
	return res
}

// persist деактивирует прежний набор и записывает новый в одной транзакции вместе с outbox-событием.
func (s *SyncUseCase) persist(ctx context.Context, shop, runID string, recs []domain.Recommendation, res *SyncRes) (err error) {
	ctx, span := tracing.Start(ctx, "sync.persist", attribute.Int("rows", len(recs)))
	defer func() { tracing.End(span, err) }()

	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		deactivated, err := s.recRepo.DeactivateShop(ctx, shop)
		if err != nil {
			return err
		}

		if err := s.recRepo.UpsertBatch(ctx, recs); err != nil {
			return err
		}

		s.logger.Debugf("%s: deactivated %d rows, upserted %d", shop, deactivated, len(recs))

		if s.outboxRepo == nil {
			return nil
		}

		payload, err := json.Marshal(RecommendationsSyncedPayload{
			RunID:                 runID,
			Shop:                  shop,
			ProductsProcessed:     res.Stats.ProductsProcessed,
			RecommendationsStored: len(recs),
			ReasoningErrors:       res.Stats.ReasoningErrors,
			FinishedAt:            time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		_, err = s.outboxRepo.Create(ctx, &OutboxEvent{
			EventID:     uuid.NewString(),
			EventType:   EventRecommendationsSynced,
			AggregateID: shop,
			Payload:     payload,
			Status:      Pending,
			CreatedAt:   time.Now().UTC(),
		})
		return err
	})
}

func (s *SyncUseCase) invalidateCache(ctx context.Context, shop string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateShop(ctx, shop); err != nil {
		s.logger.Warnf("failed to invalidate recommendation cache for %s: %v", shop, err)
	}
}

func (s *SyncUseCase) exportSnapshot(
	ctx context.Context,
	runID string,
	shop *domain.Shop,
	startedAt time.Time,
	records []domain.RecommendationRecord,
	stats domain.SyncStats,
) string {
	if s.exporter == nil {
		return ""
	}

	snap := domain.NewSyncSnapshot(runID, shop.Domain, shop.Plan.String(), startedAt, records, stats)
	key, err := s.exporter.Export(ctx, snap)
	if err != nil {
		s.logger.Warnf("failed to export snapshot %s: %v", runID, err)
		return ""
	}
	return key
}
