package filters

import (
	"github.com/RyanBlaney/sonido-breath/algorithms/common"
)

// Detrend returns signal minus its least-squares straight line.
// Signals shorter than two samples are returned as a zeroed copy.
func Detrend(signal []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) < 2 {
		return out
	}

	x := make([]float64, len(signal))
	for i := range x {
		x[i] = float64(i)
	}

	slope, intercept, _ := common.LinRegression(x, signal)
	for i, v := range signal {
		out[i] = v - (intercept + slope*x[i])
	}

	return out
}
