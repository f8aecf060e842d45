package http

import (
	"net/http"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type RecommendationHandler struct {
	recUC  usecase.RecommendationUC
	logger logger.Logger
}

func NewRecommendationHandler(recUC usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recUC: recUC, logger: logger}
}

// RecommendationsResponse — ответ виджету витрины.
type RecommendationsResponse struct {
	ProductID       string               `json:"product_id"`
	Recommendations []RecommendationJSON `json:"recommendations"`
	Source          string               `json:"source"`
}

type RecommendationJSON struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price" swaggertype:"string"`
	Image      string          `json:"image"`
	Similarity float64         `json:"similarity"`
	Reasoning  string          `json:"reasoning"`
}

// getRecommendations
//
//	@Summary		Рекомендации для товара
//	@Description	Возвращает активные рекомендации, посчитанные последним прогоном
//	@Tags			recommendations
//	@Produce		json
//	@Param			shop		path		string	true	"Домен магазина"
//	@Param			productID	path		string	true	"ID товара или Shopify GID"
//	@Param			limit		query		int		false	"Количество, по умолчанию 3, максимум 5"
//	@Success		200			{object}	RecommendationsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/shops/{shop}/products/{productID}/recommendations [get]
func (h *RecommendationHandler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.recUC.GetRecommendations(r.Context(), usecase.NewGetRecommendationsReq(
		chi.URLParam(r, "shop"),
		chi.URLParam(r, "productID"),
		limit,
	))
	if err != nil {
		if code, _ := ToHTTPResponse(err); code >= http.StatusInternalServerError {
			h.logger.Errorf(err, "get recommendations failed")
		} else {
			h.logger.Warnf("%d: %s", code, err.Error())
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toRecommendationsResponse(res))
}

func toRecommendationsResponse(res *usecase.GetRecommendationsRes) *RecommendationsResponse {
	items := make([]RecommendationJSON, 0, len(res.Recommendations))
	for _, it := range res.Recommendations {
		items = append(items, RecommendationJSON(it))
	}

	return &RecommendationsResponse{
		ProductID:       res.ProductID,
		Recommendations: items,
		Source:          res.Source,
	}
}
