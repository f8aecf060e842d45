package http

import (
	"net/http"

	_ "github.com/DRSN-tech/cartwhisper/docs" // регистрация swagger-спецификации
	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует маршруты API. Чтение рекомендаций публично для виджета витрины,
// административные маршруты закрыты session token.
func (r *Router) Init(httpCfg *cfg.HTTPConfig, shopifyCfg *cfg.ShopifyCfg, syncUC usecase.SyncUC, recUC usecase.RecommendationUC, shopUC usecase.ShopUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: httpCfg.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	auth := SessionAuth(shopifyCfg.APISecret, shopifyCfg.APIKey, r.logger)

	r.router.Route("/api/v1/shops/{shop}", func(shop chi.Router) {
		registerRecommendationRoutes(shop, NewRecommendationHandler(recUC, r.logger))

		shop.Group(func(admin chi.Router) {
			admin.Use(auth)
			registerAdminRoutes(admin, NewSyncHandler(syncUC, r.logger), NewShopHandler(shopUC, r.logger))
		})
	})
}

func registerRecommendationRoutes(router chi.Router, h *RecommendationHandler) {
	router.Get("/products/{productID}/recommendations", h.getRecommendations)
}

func registerAdminRoutes(router chi.Router, syncH *SyncHandler, shopH *ShopHandler) {
	router.Put("/", shopH.putShop)
	router.Get("/", shopH.getShop)
	router.Post("/sync", syncH.syncRecommendations)
}
