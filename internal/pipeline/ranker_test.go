package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
)

func vec(id string, v ...float64) domain.EmbeddingVector {
	return domain.NewEmbeddingVector(id, v)
}

func TestRankIdenticalVectorsScoreOne(t *testing.T) {
	r := NewMemoryRanker()
	got, err := r.Rank(context.Background(), []domain.EmbeddingVector{
		vec("a", 0.3, 0.4, 0.5),
		vec("b", 0.3, 0.4, 0.5),
	}, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	if len(got["a"]) != 1 || got["a"][0].TargetProductID != "b" || got["a"][0].Score != 1 {
		t.Fatalf("unexpected rank for a: %+v", got["a"])
	}
}

func TestRankExcludesSelfAndSortsDescending(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		vec("a", 1, 0),
		vec("b", 0.9, 0.1),
		vec("c", 0, 1),
		vec("d", -1, 0),
		vec("e", 0.5, 0.5),
	}

	got, err := NewMemoryRanker().Rank(context.Background(), vectors, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	for id, list := range got {
		if len(list) != len(vectors)-1 {
			t.Errorf("%s: len = %d", id, len(list))
		}
		for i, entry := range list {
			if entry.TargetProductID == id {
				t.Errorf("%s contains itself", id)
			}
			if i > 0 && list[i-1].Score < entry.Score {
				t.Errorf("%s not sorted at %d: %v < %v", id, i, list[i-1].Score, entry.Score)
			}
		}
	}

	if got["a"][0].TargetProductID != "b" {
		t.Errorf("closest to a = %s, want b", got["a"][0].TargetProductID)
	}
	if last := got["a"][len(got["a"])-1]; last.TargetProductID != "d" || last.Score != -1 {
		t.Errorf("farthest from a = %+v", last)
	}
}

func TestRankTopNKeepsHighestScores(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		vec("src", 1, 0),
		vec("low", 0, 1),
		vec("high", 1, 0.01),
		vec("mid", 1, 1),
	}

	got, err := NewMemoryRanker().Rank(context.Background(), vectors, 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	list := got["src"]
	if len(list) != 2 || list[0].TargetProductID != "high" || list[1].TargetProductID != "mid" {
		t.Fatalf("top2 = %+v", list)
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		vec("src", 1, 0),
		vec("first", 0, 1),
		vec("second", 0, 2),
		vec("third", 0, 3),
	}

	got, err := NewMemoryRanker().Rank(context.Background(), vectors, 10)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got["src"][i].TargetProductID != id {
			t.Fatalf("position %d = %s, want %s", i, got["src"][i].TargetProductID, id)
		}
	}
}

func TestRankZeroNormGivesZero(t *testing.T) {
	got, err := NewMemoryRanker().Rank(context.Background(), []domain.EmbeddingVector{
		vec("a", 0, 0),
		vec("b", 1, 1),
	}, 0)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got["a"][0].Score != 0 || got["b"][0].Score != 0 {
		t.Fatalf("zero norm scores = %+v %+v", got["a"], got["b"])
	}
}

func TestRankDimensionMismatch(t *testing.T) {
	_, err := NewMemoryRanker().Rank(context.Background(), []domain.EmbeddingVector{
		vec("a", 1, 0),
		vec("b", 1, 0, 0),
	}, 10)
	if !errors.Is(err, e.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRankCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryRanker().Rank(ctx, []domain.EmbeddingVector{vec("a", 1), vec("b", 1)}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPairCount(t *testing.T) {
	if PairCount(1) != 0 || PairCount(4) != 12 {
		t.Fatalf("PairCount mismatch")
	}
}
