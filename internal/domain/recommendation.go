package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxCandidates — максимальное число рекомендаций на один товар.
const MaxCandidates = 5

// Candidate — отфильтрованный сосед, пригодный для рекомендации.
type Candidate struct {
	ProductID  string
	Title      string
	Price      decimal.Decimal
	Category   string
	Vendor     string
	Image      string
	Similarity float64
}

func NewCandidate(p *Product, similarity float64) Candidate {
	return Candidate{
		ProductID:  p.ID,
		Title:      p.Title,
		Price:      p.Price,
		Category:   p.ProductType,
		Vendor:     p.Vendor,
		Image:      p.Image,
		Similarity: similarity,
	}
}

// RecommendationRecord — результат прогона для одного исходного товара.
type RecommendationRecord struct {
	Shop            string
	SourceProductID string
	SourceTitle     string
	SourcePrice     decimal.Decimal
	SourceCategory  string
	Candidates      []Candidate
	Reasoning       string // пусто, если обоснование не формировалось
	LowCandidates   bool   // меньше порога кандидатов после фильтрации
}

func NewRecommendationRecord(shop string, source *Product, candidates []Candidate) RecommendationRecord {
	return RecommendationRecord{
		Shop:            shop,
		SourceProductID: source.ID,
		SourceTitle:     source.Title,
		SourcePrice:     source.Price,
		SourceCategory:  source.ProductType,
		Candidates:      candidates,
	}
}

// Recommendation — сохранённая строка рекомендации (source -> recommended).
type Recommendation struct {
	ID                   int64
	Shop                 string
	RunID                string
	SourceProductID      string
	SourceTitle          string
	RecommendedProductID string
	RecommendedTitle     string
	RecommendedPrice     decimal.Decimal
	RecommendedImage     string
	RecommendedCategory  string
	Similarity           float64
	Priority             int
	Reasoning            string
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// ToRecommendations разворачивает записи прогона в строки хранилища.
// priority = число кандидатов - позиция, чтобы потребители могли сортировать без пересчёта.
func ToRecommendations(runID string, records []RecommendationRecord) []Recommendation {
	var out []Recommendation
	for _, rec := range records {
		n := len(rec.Candidates)
		for i, c := range rec.Candidates {
			out = append(out, Recommendation{
				Shop:                 rec.Shop,
				RunID:                runID,
				SourceProductID:      rec.SourceProductID,
				SourceTitle:          rec.SourceTitle,
				RecommendedProductID: c.ProductID,
				RecommendedTitle:     c.Title,
				RecommendedPrice:     c.Price,
				RecommendedImage:     c.Image,
				RecommendedCategory:  c.Category,
				Similarity:           c.Similarity,
				Priority:             n - i,
				Reasoning:            rec.Reasoning,
				IsActive:             true,
			})
		}
	}
	return out
}
