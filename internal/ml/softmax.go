package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// LastRow returns the final width-sized row of a flattened [1, T, width] logits
// tensor. Only the prediction after the last token is used.
func LastRow(data []float32, width int) ([]float32, error) {
	if width <= 0 || len(data) < width || len(data)%width != 0 {
		return nil, fmt.Errorf("logits of length %d do not divide into rows of %d", len(data), width)
	}
	return data[len(data)-width:], nil
}

// Softmax 数值稳定版本：先减去最大值再取指数
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	xs := make([]float64, len(logits))
	for i, v := range logits {
		xs[i] = float64(v)
	}
	floats.AddConst(-floats.Max(xs), xs)
	for i, v := range xs {
		xs[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(xs), xs)

	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}
