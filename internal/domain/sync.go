package domain

import (
	"path"
	"time"
)

// SyncStats — счётчики одного прогона синхронизации.
type SyncStats struct {
	ProductsProcessed     int
	SimilaritiesComputed  int
	CandidatesKept        int
	CandidatesFiltered    int // сумма отказов ниже
	RejectedByPrice       int
	RejectedByCeiling     int
	RejectedByCategory    int
	UnknownSkipped        int
	LowCandidateProducts  int
	ReasoningGenerated    int
	ReasoningFallbacks    int
	ReasoningErrors       int
	RecommendationsStored int
}

// Map — счётчики в виде, пригодном для JSON-ответов и выгрузок.
func (s SyncStats) Map() map[string]int {
	return map[string]int{
		"products_processed":     s.ProductsProcessed,
		"similarities_computed":  s.SimilaritiesComputed,
		"candidates_kept":        s.CandidatesKept,
		"candidates_filtered":    s.CandidatesFiltered,
		"rejected_by_price":      s.RejectedByPrice,
		"rejected_by_ceiling":    s.RejectedByCeiling,
		"rejected_by_category":   s.RejectedByCategory,
		"unknown_skipped":        s.UnknownSkipped,
		"low_candidate_products": s.LowCandidateProducts,
		"reasoning_generated":    s.ReasoningGenerated,
		"reasoning_fallbacks":    s.ReasoningFallbacks,
		"reasoning_errors":       s.ReasoningErrors,
		"recommendations_stored": s.RecommendationsStored,
	}
}

// SyncSnapshot — выгрузка результата прогона для отладки и отката.
type SyncSnapshot struct {
	RunID      string           `json:"run_id"`
	Shop       string           `json:"shop"`
	Plan       string           `json:"plan"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Records    []SnapshotRecord `json:"records"`
	Stats      map[string]int   `json:"stats"`
}

// SnapshotRecord — запись прогона в формате выгрузки.
type SnapshotRecord struct {
	SourceProductID string              `json:"source_product_id"`
	SourceTitle     string              `json:"source_title"`
	SourcePrice     string              `json:"source_price"`
	SourceCategory  string              `json:"source_category"`
	Reasoning       string              `json:"reasoning,omitempty"`
	Candidates      []SnapshotCandidate `json:"candidates"`
}

type SnapshotCandidate struct {
	ProductID  string  `json:"product_id"`
	Title      string  `json:"title"`
	Price      string  `json:"price"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// NewSyncSnapshot собирает выгрузку из записей прогона.
func NewSyncSnapshot(runID, shop, plan string, startedAt time.Time, records []RecommendationRecord, stats SyncStats) *SyncSnapshot {
	out := make([]SnapshotRecord, 0, len(records))
	for _, r := range records {
		cands := make([]SnapshotCandidate, 0, len(r.Candidates))
		for _, c := range r.Candidates {
			cands = append(cands, SnapshotCandidate{
				ProductID:  c.ProductID,
				Title:      c.Title,
				Price:      c.Price.StringFixed(2),
				Category:   c.Category,
				Similarity: c.Similarity,
			})
		}
		out = append(out, SnapshotRecord{
			SourceProductID: r.SourceProductID,
			SourceTitle:     r.SourceTitle,
			SourcePrice:     r.SourcePrice.StringFixed(2),
			SourceCategory:  r.SourceCategory,
			Reasoning:       r.Reasoning,
			Candidates:      cands,
		})
	}

	return &SyncSnapshot{
		RunID:      runID,
		Shop:       shop,
		Plan:       plan,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		Records:    out,
		Stats:      stats.Map(),
	}
}

// SnapshotKey — ключ выгрузки: snapshots/<shop>/<run>.json.
func SnapshotKey(shop, runID string) string {
	return path.Join(SnapshotShopPrefix(shop), runID+".json")
}

// SnapshotShopPrefix — префикс всех выгрузок магазина.
func SnapshotShopPrefix(shop string) string {
	return path.Join("snapshots", shop) + "/"
}
