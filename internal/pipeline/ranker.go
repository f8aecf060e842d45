package pipeline

import (
	"context"
	"sort"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/vecmath"
)

const (
	// DefaultTopN — сколько ближайших соседей хранится на товар.
	DefaultTopN = 10
	// ScoreDigits — точность округления сходства.
	ScoreDigits = 4
)

// MemoryRanker считает попарное косинусное сходство в памяти процесса.
type MemoryRanker struct{}

func NewMemoryRanker() *MemoryRanker {
	return &MemoryRanker{}
}

// Rank возвращает для каждого товара topN соседей по убыванию сходства.
// Равные оценки сохраняют порядок vectors. Сам товар в свой список не попадает.
func (r *MemoryRanker) Rank(ctx context.Context, vectors []domain.EmbeddingVector, topN int) (map[string][]domain.SimilarityEntry, error) {
	const op = "MemoryRanker.Rank"

	if topN <= 0 {
		topN = DefaultTopN
	}

	if err := CheckDimensions(vectors); err != nil {
		return nil, e.Wrap(op, err)
	}

	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = vecmath.Norm(v.Vector)
	}

	out := make(map[string][]domain.SimilarityEntry, len(vectors))
	for i, src := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, e.Wrap(op, err)
		}

		scores := make([]domain.SimilarityEntry, 0, len(vectors)-1)
		for j, dst := range vectors {
			if i == j || src.ProductID == dst.ProductID {
				continue
			}
			sim := vecmath.CosineWithNorms(src.Vector, dst.Vector, norms[i], norms[j])
			scores = append(scores, domain.NewSimilarityEntry(dst.ProductID, vecmath.Round(sim, ScoreDigits)))
		}

		out[src.ProductID] = TopN(scores, topN)
	}

	return out, nil
}

// TopN стабильно сортирует оценки по убыванию и обрезает список до n.
func TopN(scores []domain.SimilarityEntry, n int) []domain.SimilarityEntry {
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}

// PairCount — число упорядоченных пар, для которых считается сходство.
func PairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1)
}

// CheckDimensions проверяет, что все векторы непустые и одной длины.
func CheckDimensions(vectors []domain.EmbeddingVector) error {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0].Vector)
	for _, v := range vectors {
		if len(v.Vector) == 0 {
			return e.ErrEmptyVector
		}
		if len(v.Vector) != dim {
			return e.ErrDimensionMismatch
		}
	}
	return nil
}
