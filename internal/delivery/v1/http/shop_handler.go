package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxShopBodySize = 1 << 16

type ShopHandler struct {
	shopUC usecase.ShopUC
	logger logger.Logger
}

func NewShopHandler(shopUC usecase.ShopUC, logger logger.Logger) *ShopHandler {
	return &ShopHandler{shopUC: shopUC, logger: logger}
}

type PutShopRequest struct {
	AccessToken string `json:"access_token"`
	Plan        string `json:"plan"`
}

type ShopResponse struct {
	Domain    string     `json:"domain"`
	Plan      string     `json:"plan"`
	Limits    PlanLimits `json:"limits"`
	HasToken  bool       `json:"has_token"`
	CreatedAt time.Time  `json:"created_at"`
}

type PlanLimits struct {
	MaxProducts               int  `json:"max_products"`
	RecommendationsPerProduct int  `json:"recommendations_per_product"`
	AIReasoning               bool `json:"ai_reasoning"`
	ReasoningLimit            int  `json:"reasoning_limit"`
}

// putShop
//
//	@Summary	Регистрация или обновление магазина
//	@Tags		shops
//	@Accept		json
//	@Produce	json
//	@Security	SessionToken
//	@Param		shop	path		string			true	"Домен магазина"
//	@Param		body	body		PutShopRequest	true	"Токен Admin API и тариф"
//	@Success	200		{object}	ShopResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/shops/{shop} [put]
func (h *ShopHandler) putShop(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxShopBodySize)

	var body PutShopRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, errors.Join(e.ErrStatusBadRequest, err))
		return
	}

	info, err := h.shopUC.PutShop(r.Context(), usecase.NewPutShopReq(chi.URLParam(r, "shop"), body.AccessToken, body.Plan))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toShopResponse(info))
}

// getShop
//
//	@Summary	Информация о магазине
//	@Tags		shops
//	@Produce	json
//	@Security	SessionToken
//	@Param		shop	path		string	true	"Домен магазина"
//	@Success	200		{object}	ShopResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/shops/{shop} [get]
func (h *ShopHandler) getShop(w http.ResponseWriter, r *http.Request) {
	info, err := h.shopUC.GetShop(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toShopResponse(info))
}

func toShopResponse(info *usecase.ShopInfo) *ShopResponse {
	return &ShopResponse{
		Domain:    info.Domain,
		Plan:      info.Plan,
		Limits:    PlanLimits(info.Limits),
		HasToken:  info.HasToken,
		CreatedAt: info.CreatedAt,
	}
}
