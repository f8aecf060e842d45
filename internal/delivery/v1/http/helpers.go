package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку usecase с HTTP-кодом и безопасным текстом.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrShopRequired):
		return http.StatusBadRequest, e.ErrShopRequired.Error()
	case errors.Is(err, e.ErrProductIDRequired):
		return http.StatusBadRequest, e.ErrProductIDRequired.Error()
	case errors.Is(err, e.ErrInvalidProductID):
		return http.StatusBadRequest, e.ErrInvalidProductID.Error()
	case errors.Is(err, e.ErrInvalidLimit):
		return http.StatusBadRequest, e.ErrInvalidLimit.Error()
	case errors.Is(err, e.ErrInvalidPlan):
		return http.StatusBadRequest, e.ErrInvalidPlan.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden, e.ErrForbidden.Error()
	case errors.Is(err, e.ErrShopNotFound):
		return http.StatusNotFound, e.ErrShopNotFound.Error()
	case errors.Is(err, e.ErrSyncInProgress):
		return http.StatusConflict, e.ErrSyncInProgress.Error()
	case errors.Is(err, e.ErrCatalogFetch):
		return http.StatusBadGateway, e.ErrCatalogFetch.Error()
	case errors.Is(err, e.ErrModelUnavailable):
		return http.StatusServiceUnavailable, e.ErrModelUnavailable.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// parseLimit читает ?limit=. Отсутствующий параметр даёт 0: значение по умолчанию выбирает usecase.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrInvalidLimit, err))
	}

	return limit, nil
}
