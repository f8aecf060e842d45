package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// Фатальные ошибки синхронизации (прерывают весь прогон)
	ErrModelUnavailable  = fmt.Errorf("embedding model unavailable")
	ErrCatalogFetch      = fmt.Errorf("catalog fetch failed")
	ErrEmbeddingFailed   = fmt.Errorf("embedding generation failed")
	ErrDimensionMismatch = fmt.Errorf("embedding dimension mismatch")
	ErrEmptyVector       = fmt.Errorf("embedding vector is empty")
	ErrSyncInProgress    = fmt.Errorf("sync already in progress for shop")

	// Ошибки обогащения (не прерывают прогон)
	ErrEmptyReasoning = fmt.Errorf("reasoning service returned empty text")

	// 400 Bad Request
	ErrStatusBadRequest   = fmt.Errorf("bad request")
	ErrShopRequired       = fmt.Errorf("shop is required")
	ErrProductIDRequired  = fmt.Errorf("product id is required")
	ErrInvalidProductID   = fmt.Errorf("invalid product id")
	ErrInvalidLimit       = fmt.Errorf("invalid limit")
	ErrInvalidPrice       = fmt.Errorf("invalid price")
	ErrInvalidPlan        = fmt.Errorf("invalid plan tier")
	ErrUnsupportedCatalog = fmt.Errorf("unsupported catalog file format")

	// 401 / 403
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrForbidden    = fmt.Errorf("forbidden")

	// 404
	ErrShopNotFound = fmt.Errorf("shop not found")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// IsFatal сообщает, относится ли ошибка к классу прерывающих синхронизацию.
func IsFatal(err error) bool {
	return errors.Is(err, ErrModelUnavailable) ||
		errors.Is(err, ErrCatalogFetch) ||
		errors.Is(err, ErrEmbeddingFailed) ||
		errors.Is(err, ErrDimensionMismatch)
}
