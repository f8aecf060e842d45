package pipeline

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
)

const (
	maxPromptTitle = 120
	systemPrompt   = "You are a retail merchandising assistant. " +
		"In one or two short sentences explain why the listed products complement the main product. " +
		"Do not invent facts, prices or discounts."
)

// Prompt — запрос к сервису обоснований.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt формирует запрос ограниченного размера: исходный товар и не более domain.MaxCandidates кандидатов.
func BuildPrompt(rec *domain.RecommendationRecord) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Main product: %s", clip(rec.SourceTitle, maxPromptTitle))
	if rec.SourceCategory != "" {
		fmt.Fprintf(&b, " (category: %s)", clip(rec.SourceCategory, maxPromptTitle))
	}
	fmt.Fprintf(&b, ", price %s.\nRecommended products:\n", rec.SourcePrice.StringFixed(2))

	for i, c := range rec.Candidates {
		if i >= domain.MaxCandidates {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, clip(c.Title, maxPromptTitle))
		if c.Category != "" {
			fmt.Fprintf(&b, " (category: %s)", clip(c.Category, maxPromptTitle))
		}
		fmt.Fprintf(&b, ", price %s\n", c.Price.StringFixed(2))
	}

	return Prompt{
		System: systemPrompt,
		User:   b.String(),
	}
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
