package domain

// EmbeddingVector — вектор товара в рамках одного прогона. Не сохраняется.
type EmbeddingVector struct {
	ProductID string
	Vector    []float64
}

func NewEmbeddingVector(productID string, vector []float64) EmbeddingVector {
	return EmbeddingVector{
		ProductID: productID,
		Vector:    vector,
	}
}

// SimilarityEntry — сходство исходного товара с целевым.
type SimilarityEntry struct {
	TargetProductID string
	Score           float64 // [-1, 1], округлено до 4 знаков
}

func NewSimilarityEntry(targetID string, score float64) SimilarityEntry {
	return SimilarityEntry{
		TargetProductID: targetID,
		Score:           score,
	}
}
