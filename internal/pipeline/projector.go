// Package pipeline содержит чистые шаги синхронизации рекомендаций:
// проекцию товара в текст, ранжирование по сходству, фильтрацию кандидатов и обогащение обоснованиями.
package pipeline

import (
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// ProjectText превращает товар в одну строку для модели эмбеддингов.
// Порядок полей фиксирован: title, productType, tags, vendor, collections. Пустые поля пропускаются.
func ProjectText(p *domain.Product) string {
	if p == nil {
		return ""
	}

	parts := make([]string, 0, 5)
	for _, field := range []string{
		p.Title,
		p.ProductType,
		strings.Join(p.Tags, " "),
		p.Vendor,
		strings.Join(p.Collections, " "),
	} {
		if strings.TrimSpace(field) != "" {
			parts = append(parts, field)
		}
	}

	text := norm.NFKC.String(strings.Join(parts, " "))
	return strings.Join(strings.Fields(text), " ")
}
