package vecmath

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestCosineWithNorms(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"both zero", []float64{0, 0}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineWithNorms(tt.a, tt.b, Norm(tt.a), Norm(tt.b))
			if math.Abs(got-tt.want) > eps {
				t.Errorf("CosineWithNorms = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	if math.Abs(Norm(v)-1) > eps {
		t.Fatalf("norm = %v, want 1", Norm(v))
	}
	if math.Abs(v[0]-0.6) > eps || math.Abs(v[1]-0.8) > eps {
		t.Fatalf("got %v, want [0.6 0.8]", v)
	}

	zero := Normalize([]float64{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Fatalf("zero vector changed: %v", zero)
	}
}

func TestMeanPoolRespectsMask(t *testing.T) {
	hidden := []float32{
		1, 1,
		3, 3,
		100, 100, // padding
	}
	mask := []int64{1, 1, 0}

	got := MeanPool(hidden, mask, 2)
	if got[0] != 2 || got[1] != 2 {
		t.Fatalf("MeanPool = %v, want [2 2]", got)
	}
}

func TestMeanPoolEmptyMask(t *testing.T) {
	got := MeanPool([]float32{1, 2}, []int64{0}, 2)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("MeanPool = %v, want zeros", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(0.123456, 4); got != 0.1235 {
		t.Errorf("Round = %v, want 0.1235", got)
	}
	if got := Round(0.99996, 4); got != 1 {
		t.Errorf("Round = %v, want 1", got)
	}
}
