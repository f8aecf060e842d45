package app

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/cartwhisper/internal/cfg"
	v1Grpc "github.com/DRSN-tech/cartwhisper/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/cartwhisper/internal/delivery/v1/http"
	"github.com/DRSN-tech/cartwhisper/internal/infrastructure/kafka"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/closer"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout = 15 * time.Second
	initTimeout     = 10 * time.Second
)

// Options — параметры сборки приложения, задаваемые из командной строки.
type Options struct {
	CatalogFile string // файл каталога вместо Shopify Admin API
	NoOutbox    bool   // не запускать relay outbox в Kafka
}

// App собирает зависимости и владеет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	SyncUC *usecase.SyncUseCase
	RecUC  *usecase.RecommendationUseCase
	ShopUC *usecase.ShopUseCase

	outbox *kafka.OutboxWorker // nil, если Kafka выключена или хранилище SQLite
}

// New инициализирует хранилище, кэш, модель, ранжировщик и выгрузку согласно конфигурации.
// При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, logger logger.Logger, opts Options) (_ *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(0),
	}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if err := a.initTracing(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	st, err := a.initStorage(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cache := a.initCache(ctx)

	exporter, err := a.initExporter(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ranker, err := a.initRanker()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedder, err := a.initEmbedder()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var outboxRepo usecase.OutboxRepository
	if !opts.NoOutbox && st.outbox != nil && cfg.Kafka.Enabled {
		if err := a.initOutbox(st.outbox); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		outboxRepo = st.outbox
	}

	a.SyncUC = usecase.NewSyncUseCase(
		st.shops,
		a.initCatalog(opts.CatalogFile),
		embedder,
		ranker,
		a.initEnricher(),
		st.recommendations,
		st.transactor,
		outboxRepo,
		cache,
		exporter,
		usecase.SyncOptions{
			TopN:           cfg.Pipeline.TopN,
			MinCandidates:  cfg.Pipeline.MinCandidates,
			ReasoningLimit: cfg.LLM.ReasoningLimit,
			Timeout:        cfg.Pipeline.SyncTimeout,
		},
		logger,
	)
	a.RecUC = usecase.NewRecommendationUseCase(st.recommendations, cache, cfg.Cache.FreshTTL, logger)
	a.ShopUC = usecase.NewShopUseCase(st.shops, logger)

	return a, nil
}

// Serve запускает HTTP и gRPC серверы и relay outbox, затем ждёт сигнала или ошибки сервера.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.outbox != nil {
		a.outbox.Start(ctx)
	}

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(a.cfg.Http, a.cfg.Shopify, a.SyncUC, a.RecUC, a.ShopUC)
	httpSrv := v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", httpSrv.Stop)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := httpSrv.Run(); err != nil {
			errCh <- e.Wrap("http server", err)
		}
	}()

	if a.cfg.Grpc.Enabled {
		grpcSrv := v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
		grpcSrv.RegisterServices(a.RecUC, a.SyncUC)
		a.closer.Add("grpc server", grpcSrv.Stop)

		go func() {
			a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
			if err := grpcSrv.Start(); err != nil && !errors.Is(err, net.ErrClosed) {
				errCh <- e.Wrap("grpc server", err)
			}
		}()
	}

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// Close закрывает ресурсы в обратном порядке регистрации.
func (a *App) Close(ctx context.Context) error {
	return a.closer.Close(ctx)
}

// Migrate применяет схему выбранного хранилища и завершает работу.
func Migrate(ctx context.Context, cfg *config.Config, logger logger.Logger) error {
	a := &App{cfg: cfg, logger: logger, closer: closer.NewCloser(0)}
	defer a.Close(context.Background())

	if _, err := a.initStorage(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	logger.Infof("migrations applied: storage=%s", cfg.Storage.Driver)
	return nil
}
