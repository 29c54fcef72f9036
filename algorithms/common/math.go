package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Median returns the 0.5 empirical quantile
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Range returns min and max of data. Empty data returns zeros.
func Range(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return floats.Min(data), floats.Max(data)
}

// Diff returns the first differences data[i+1]-data[i]
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	d := make([]float64, len(data)-1)
	floats.SubTo(d, data[1:], data[:len(data)-1])
	return d
}

// Scaled returns a copy of data multiplied by s
func Scaled(data []float64, s float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	floats.Scale(s, out)
	return out
}

// LinRegression performs simple linear regression and returns slope, intercept, r²
func LinRegression(x, y []float64) (slope, intercept, rSquared float64) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, 0, 0
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	rSquared = stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(rSquared) || math.IsInf(rSquared, 0) {
		rSquared = 0.0
	}

	return beta, alpha, rSquared
}

// ParabolicVertex fits a parabola through (-1, left), (0, center), (1, right)
// and returns the vertex offset and value. ok is false for zero curvature.
func ParabolicVertex(left, center, right float64) (offset, value float64, ok bool) {
	curvature := left - 2*center + right
	if curvature == 0 {
		return 0, center, false
	}

	offset = (left - right) / (2 * curvature)
	value = center - (left-right)*(left-right)/(8*curvature)
	return offset, value, true
}
