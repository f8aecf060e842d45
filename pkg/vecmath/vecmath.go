// Package vecmath содержит операции над плотными векторами эмбеддингов.
package vecmath

import "math"

// Dot возвращает скалярное произведение. Векторы разной длины обрезаются по короткому.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm возвращает евклидову норму вектора.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// CosineWithNorms возвращает косинусное сходство в [-1, 1] по заранее посчитанным нормам.
// Если норма любого вектора нулевая, сходство считается равным 0.
func CosineWithNorms(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := Dot(a, b) / (normA * normB)
	// погрешность float64 может вывести значение чуть за границы
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// Normalize возвращает копию вектора единичной длины. Нулевой вектор возвращается как есть.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// MeanPool усредняет эмбеддинги токенов с учётом attention mask.
// hidden — плоский массив [seqLen*dim], mask — длины seqLen.
func MeanPool(hidden []float32, mask []int64, dim int) []float64 {
	out := make([]float64, dim)
	if dim <= 0 {
		return out
	}

	var count float64
	for t := 0; t < len(mask) && (t+1)*dim <= len(hidden); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, x := range row {
			out[i] += float64(x)
		}
		count++
	}

	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}

// Round округляет x до digits знаков после запятой.
func Round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}

// ToFloat64 конвертирует float32-вектор (формат моделей и Qdrant) в float64.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// ToFloat32 конвертирует float64-вектор в float32.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
