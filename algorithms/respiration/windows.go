package respiration

import (
	"math"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
)

// Window is a half-open run of samples [Start, End)
type Window struct {
	Index int
	Start int
	End   int
}

// StartTime returns the window start in seconds
func (w Window) StartTime(samplingRate float64) float64 {
	return float64(w.Start) / samplingRate
}

// EndTime returns the (exclusive) window end in seconds
func (w Window) EndTime(samplingRate float64) float64 {
	return float64(w.End) / samplingRate
}

// Partition tiles [0, n) with consecutive windows of windowSamples samples
// starting at 0. A trailing partial window is dropped, so there are
// floor(n / windowSamples) windows.
func Partition(n, windowSamples int) []Window {
	if windowSamples <= 0 || n < windowSamples {
		return []Window{}
	}

	windows := make([]Window, 0, n/windowSamples)
	for start := 0; start+windowSamples <= n; start += windowSamples {
		windows = append(windows, Window{
			Index: len(windows),
			Start: start,
			End:   start + windowSamples,
		})
	}
	return windows
}

// WindowSamples converts a window duration to a sample count, truncating.
// A product within 1e-9 of the next integer counts as that integer so that
// e.g. 2.3 s at 10 Hz gives 23 samples.
func WindowSamples(samplingRate, windowSeconds float64) (int, error) {
	const op = "respiration.WindowSamples"

	if samplingRate <= 0 || math.IsNaN(samplingRate) || math.IsInf(samplingRate, 0) {
		return 0, common.NewInvalidInput(op, "sampling rate must be positive, got %v", samplingRate)
	}
	if windowSeconds <= 0 || math.IsNaN(windowSeconds) || math.IsInf(windowSeconds, 0) {
		return 0, common.NewInvalidInput(op, "window duration must be positive, got %v", windowSeconds)
	}

	samples := int(math.Floor(windowSeconds*samplingRate + 1e-9))
	if samples < 1 {
		return 0, common.NewInvalidInput(op,
			"window of %v s at %v Hz is shorter than one sample", windowSeconds, samplingRate)
	}
	return samples, nil
}
