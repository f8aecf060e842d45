package http

import (
	"net/http"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type SyncHandler struct {
	syncUC usecase.SyncUC
	logger logger.Logger
}

func NewSyncHandler(syncUC usecase.SyncUC, logger logger.Logger) *SyncHandler {
	return &SyncHandler{syncUC: syncUC, logger: logger}
}

type SyncResponse struct {
	Success             bool           `json:"success"`
	Message             string         `json:"message"`
	RunID               string         `json:"run_id"`
	Plan                string         `json:"plan"`
	Stats               map[string]int `json:"stats"`
	RecommendationError string         `json:"recommendation_error,omitempty"`
	SnapshotKey         string         `json:"snapshot_key,omitempty"`
	DurationMs          int64          `json:"duration_ms"`
}

// syncRecommendations
//
//	@Summary		Пересчёт рекомендаций магазина
//	@Description	Загружает каталог, считает сходство, фильтрует кандидатов и сохраняет результат
//	@Tags			sync
//	@Produce		json
//	@Security		SessionToken
//	@Param			shop	path		string	true	"Домен магазина"
//	@Success		200		{object}	SyncResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/shops/{shop}/sync [post]
func (h *SyncHandler) syncRecommendations(w http.ResponseWriter, r *http.Request) {
	res, err := h.syncUC.Sync(r.Context(), usecase.NewSyncReq(chi.URLParam(r, "shop")))
	if err != nil {
		h.logger.Errorf(err, "sync failed for %s", chi.URLParam(r, "shop"))
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &SyncResponse{
		Success:             res.Success,
		Message:             res.Message,
		RunID:               res.RunID,
		Plan:                res.Plan,
		Stats:               res.Stats.Map(),
		RecommendationError: res.RecommendationError,
		SnapshotKey:         res.SnapshotKey,
		DurationMs:          res.Duration.Milliseconds(),
	})
}
