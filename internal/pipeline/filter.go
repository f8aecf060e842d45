package pipeline

import (
	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultMinCandidates — ниже этого числа результат помечается как бедный.
const DefaultMinCandidates = 3

// priceCeiling — верхняя граница цены кандидата относительно исходного товара.
var priceCeiling = decimal.RequireFromString("1.10")

// FilterResult — итог фильтрации соседей одного товара.
type FilterResult struct {
	Candidates       []domain.Candidate
	LowCandidates    bool
	UnknownSkipped   int
	RejectedPrice    int
	RejectedCeiling  int
	RejectedCategory int
}

// Rejected возвращает число отброшенных соседей.
func (r FilterResult) Rejected() int {
	return r.UnknownSkipped + r.RejectedPrice + r.RejectedCeiling + r.RejectedCategory
}

// CandidateFilter отбирает соседей по цене и категории.
type CandidateFilter struct {
	max int
	min int
}

// NewCandidateFilter создаёт фильтр. max ограничен domain.MaxCandidates.
func NewCandidateFilter(max, min int) *CandidateFilter {
	if max <= 0 || max > domain.MaxCandidates {
		max = domain.MaxCandidates
	}
	if min < 0 {
		min = 0
	}
	return &CandidateFilter{max: max, min: min}
}

// FilterCandidates применяет фильтр с параметрами по умолчанию.
func FilterCandidates(source *domain.Product, ranked []domain.SimilarityEntry, catalog *domain.Catalog) FilterResult {
	return NewCandidateFilter(domain.MaxCandidates, DefaultMinCandidates).Filter(source, ranked, catalog)
}

// Filter проверяет соседей в порядке ранжирования:
// цена выше исходной, цена выше 110% исходной, совпадение категории.
// Выжившие обрезаются до max.
func (f *CandidateFilter) Filter(source *domain.Product, ranked []domain.SimilarityEntry, catalog *domain.Catalog) FilterResult {
	var res FilterResult
	ceiling := source.Price.Mul(priceCeiling)

	for _, entry := range ranked {
		target, ok := catalog.Get(entry.TargetProductID)
		if !ok || target.ID == source.ID {
			res.UnknownSkipped++
			continue
		}

		if target.Price.GreaterThan(source.Price) {
			res.RejectedPrice++
			continue
		}

		if target.Price.GreaterThan(ceiling) {
			res.RejectedCeiling++
			continue
		}

		if target.ProductType == source.ProductType {
			res.RejectedCategory++
			continue
		}

		res.Candidates = append(res.Candidates, domain.NewCandidate(target, entry.Score))
	}

	if len(res.Candidates) > f.max {
		res.Candidates = res.Candidates[:f.max]
	}
	res.LowCandidates = len(res.Candidates) < f.min

	return res
}
