package app

import (
	"context"
	"fmt"
	"time"

	config "github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/catalog"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/embedding"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/kafka"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/llm"
	minioInfra "github.com/DRSN-tech/cartwhisper/internal/infrastructure/minio"
	ml_service "github.com/DRSN-tech/cartwhisper/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/snapshot"
	"github.com/DRSN-tech/cartwhisper/internal/pipeline"
	"github.com/DRSN-tech/cartwhisper/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/cartwhisper/internal/repository/minio"
	"github.com/DRSN-tech/cartwhisper/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/cartwhisper/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/cartwhisper/internal/repository/qdrant"
	"github.com/DRSN-tech/cartwhisper/internal/repository/redis"
	redisConv "github.com/DRSN-tech/cartwhisper/internal/repository/redis/converter"
	"github.com/DRSN-tech/cartwhisper/internal/repository/sqlite"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/clients"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/postgres"
	"github.com/DRSN-tech/cartwhisper/pkg/tracing"
	"github.com/jimlawless/whereami"
)

const topicTimeout = 10 * time.Second

// storage — репозитории выбранного драйвера хранилища.
type storage struct {
	shops           usecase.ShopRepository
	recommendations usecase.RecommendationRepository
	transactor      usecase.Transactor
	outbox          usecase.OutboxRepository // только PostgreSQL
}

func (a *App) initTracing(ctx context.Context) error {
	shutdown, err := tracing.Init(ctx, a.cfg.Tracing, a.logger)
	if err != nil {
		return err
	}
	a.closer.Add("tracing", shutdown)
	return nil
}

func (a *App) initStorage(ctx context.Context) (*storage, error) {
	if a.cfg.Storage.Driver == config.StorageSQLite {
		db, err := sqlite.Open(ctx, a.cfg.SQLite.Path)
		if err != nil {
			a.logger.Errorf(err, "failed to open sqlite database %s", a.cfg.SQLite.Path)
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("sqlite", func(context.Context) error { return db.Close() })
		a.logger.Infof("storage: sqlite %s", a.cfg.SQLite.Path)

		return &storage{
			shops:           sqlite.NewShopRepo(db),
			recommendations: sqlite.NewRecommendationRepo(db),
			transactor:      sqlite.NewTransactor(db),
		}, nil
	}

	db, err := initPGDB(ctx, a)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &storage{
		shops:           pgdb.NewShopRepo(db.Pool, pgdbConv.NewShopConverter()),
		recommendations: pgdb.NewRecommendationRepo(db.Pool, pgdbConv.NewRecommendationConverter()),
		transactor:      pgdb.NewTransactor(db.Pool),
		outbox:          pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter()),
	}, nil
}

func initPGDB(ctx context.Context, a *App) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddSimple("postgres", db.Close)

	if err := db.RunMigrations(a.logger); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}

// initCache возвращает Redis-кэш, а при недоступности Redis кэш в памяти процесса.
func (a *App) initCache(ctx context.Context) usecase.RecommendationCache {
	if a.cfg.Cache.Backend == config.CacheRedis {
		redisClient := clients.NewRedisClient(a.cfg.Redis)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := redisClient.Ping(pingCtx)
		if err == nil {
			a.closer.Add("redis", redisClient.Close)
			return redis.NewCacheRepo(redisClient, redisConv.NewRecommendationConverter(), a.cfg.Cache.StaleTTL, a.logger)
		}

		a.logger.Warnf("redis unavailable, falling back to in-memory cache: %v", err)
		_ = redisClient.Close(ctx)
	}

	cache := memory.NewCacheRepo(a.cfg.Cache.StaleTTL)
	a.closer.Add("memory cache", cache.Close)
	return cache
}

func (a *App) initExporter(ctx context.Context) (usecase.SnapshotExporter, error) {
	if a.cfg.Minio.Enabled {
		minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
		if err != nil {
			a.logger.Errorf(err, "failed to initialize minio client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		minioCtx, minioCancel := context.WithTimeout(ctx, initTimeout)
		defer minioCancel()
		if err := clients.EnsureBucket(minioCtx, minioClient, a.cfg.Minio.BucketName); err != nil {
			a.logger.Errorf(err, "failed to initialize MinIO bucket")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
		exporter := minioInfra.NewSnapshotExporter(
			s3Repo.NewSnapshotRepo(minioClient, a.cfg.Minio),
			a.cfg.Minio.SnapshotKeep,
			a.logger,
			cleanupCtx,
		)
		a.closer.Add("snapshot cleanup", func(ctx context.Context) error {
			defer cancelCleanup()
			return exporter.WaitForCleanup(ctx)
		})
		return exporter, nil
	}

	if a.cfg.Minio.SnapshotDir != "" {
		return snapshot.NewDirExporter(a.cfg.Minio.SnapshotDir), nil
	}

	return nil, nil
}

func (a *App) initRanker() (usecase.Ranker, error) {
	if a.cfg.Pipeline.Ranker != config.RankerQdrant {
		return pipeline.NewMemoryRanker(), nil
	}

	qdrantClient, err := clients.NewQdrantClient(a.cfg.Qdrant)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize qdrant")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("qdrant", func(context.Context) error { return qdrantClient.Close() })

	return qdrantRepo.NewRanker(qdrantClient, a.cfg.Qdrant.CollectionPrefix, a.logger), nil
}

// initEmbedder выбирает бэкенд модели. Сама модель загружается при первом прогоне.
func (a *App) initEmbedder() (usecase.Embedder, error) {
	var loader embedding.Loader
	switch a.cfg.Embedder.Backend {
	case config.EmbedderONNX:
		loader = embedding.OnnxLoader(a.cfg.Onnx, a.cfg.Embedder.Dimensions)
	case config.EmbedderML:
		loader = ml_service.Loader(a.cfg.Ml, a.logger)
	case config.EmbedderOllama:
		loader = embedding.OllamaLoader(a.cfg.Ollama)
	default:
		return nil, fmt.Errorf("%w: embedder backend %q", e.ErrIncorrectEnvVariable, a.cfg.Embedder.Backend)
	}

	gen := embedding.NewGenerator(loader, a.cfg.Embedder.Dimensions, a.logger)
	a.closer.Add("embedder", gen.Close)
	return gen, nil
}

func (a *App) initEnricher() *pipeline.Enricher {
	// *llm.Client == nil нельзя класть в интерфейс: Enricher проверяет service на nil
	var reasoner pipeline.ReasoningService
	if c := llm.NewClient(a.cfg.LLM, a.logger); c != nil {
		reasoner = c
	} else {
		a.logger.Infof("LLM API key is not set, reasoning uses local templates")
	}

	return pipeline.NewEnricher(reasoner, a.cfg.LLM.Concurrency, a.logger)
}

func (a *App) initCatalog(file string) usecase.CatalogSource {
	if file != "" {
		a.logger.Infof("catalog: file %s", file)
		return catalog.NewFileSource(file)
	}
	return catalog.NewShopifySource(a.cfg.Shopify, a.logger)
}

func (a *App) initOutbox(repo usecase.OutboxRepository) error {
	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize kafka producer")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("kafka producer", producer.Close)

	if err := producer.EnsureTopic(topicTimeout); err != nil {
		a.logger.Warnf("kafka topic check failed, relying on broker auto-create: %v", err)
	}

	a.outbox = kafka.NewOutboxWorker(repo, a.logger, producer, a.cfg.Db.DSN())
	a.closer.Add("outbox worker", a.outbox.Stop)
	return nil
}
