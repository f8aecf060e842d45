package pipeline

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
)

// FallbackPrefix помечает обоснование, подставленное после ошибки сервиса.
const FallbackPrefix = "[fallback] "

// TemplateReasoning строит обоснование без обращения к LLM. Результат никогда не пустой.
func TemplateReasoning(rec *domain.RecommendationRecord) string {
	title := strings.TrimSpace(rec.SourceTitle)
	if title == "" {
		title = "this product"
	}

	if len(rec.Candidates) == 0 {
		return fmt.Sprintf("No complementary products found for %s yet.", title)
	}

	names := make([]string, 0, len(rec.Candidates))
	categories := make([]string, 0, len(rec.Candidates))
	seen := make(map[string]struct{}, len(rec.Candidates))
	for _, c := range rec.Candidates {
		names = append(names, c.Title)
		cat := strings.TrimSpace(c.Category)
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}

	if len(categories) == 0 {
		return fmt.Sprintf("Shoppers who pick %s often add %s.", title, joinHuman(names))
	}

	return fmt.Sprintf(
		"Shoppers who pick %s often add %s from %s.",
		title,
		joinHuman(names),
		joinHuman(categories),
	)
}

// FallbackReasoning — шаблон с пометкой о сбое сервиса обоснований.
func FallbackReasoning(rec *domain.RecommendationRecord) string {
	return FallbackPrefix + TemplateReasoning(rec)
}

func joinHuman(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
