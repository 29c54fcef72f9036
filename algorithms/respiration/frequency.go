package respiration

import (
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/algorithms/filters"
	"github.com/RyanBlaney/sonido-breath/algorithms/peaks"
	"github.com/RyanBlaney/sonido-breath/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FrequencyTrace holds one breathing frequency (Hz) per window, 0 where a
// window has fewer than two breaths.
type FrequencyTrace []float64

// Cleaner prepares a raw respiratory signal for peak detection. The result
// must have the same length as the input.
type Cleaner interface {
	Clean(signal []float64, samplingRate float64) ([]float64, error)
}

// FrequencyEstimator estimates breathing frequency over fixed,
// non-overlapping windows from the intervals between detected breaths.
type FrequencyEstimator struct {
	cleaner  Cleaner
	detector *peaks.Detector
	logger   logging.Logger
}

// NewFrequencyEstimator uses maxima detection with default selectivity and
// no threshold.
func NewFrequencyEstimator(cleaner Cleaner) *FrequencyEstimator {
	return NewFrequencyEstimatorWithOptions(cleaner, peaks.DefaultOptions())
}

// NewFrequencyEstimatorWithOptions uses custom detector options
func NewFrequencyEstimatorWithOptions(cleaner Cleaner, opts peaks.Options) *FrequencyEstimator {
	logger := logging.WithFields(logging.Fields{
		"component": "frequency_estimator",
	})
	if opts.Logger == nil {
		opts.Logger = logger
	}

	return &FrequencyEstimator{
		cleaner:  cleaner,
		detector: peaks.NewDetector(opts),
		logger:   logger,
	}
}

// WindowedFrequency cleans signal with the khodadad2018 preset and returns
// the per-window breathing frequency.
func WindowedFrequency(signal []float64, samplingRate, windowSeconds float64) (FrequencyTrace, error) {
	cleaner, err := filters.NewCleaner(filters.MethodKhodadad)
	if err != nil {
		return nil, err
	}
	return NewFrequencyEstimator(cleaner).Compute(signal, samplingRate, windowSeconds)
}

// Compute cleans signal, detects breaths and returns one frequency per
// complete window. Cleaner and detector errors are returned as is.
func (fe *FrequencyEstimator) Compute(signal []float64, samplingRate, windowSeconds float64) (FrequencyTrace, error) {
	if _, err := WindowSamples(samplingRate, windowSeconds); err != nil {
		return nil, err
	}

	cleaned, err := fe.cleaner.Clean(signal, samplingRate)
	if err != nil {
		return nil, err
	}

	ps, err := fe.detector.Detect(cleaned)
	if err != nil {
		return nil, err
	}

	trace, err := FrequencyFromPeakTimes(ps.Times(samplingRate), samplingRate, windowSeconds, len(signal))
	if err != nil {
		return nil, err
	}

	fe.logger.Debug("Windowed frequency computed", logging.Fields{
		"samples":        len(signal),
		"sampling_rate":  samplingRate,
		"window_seconds": windowSeconds,
		"peaks":          ps.Len(),
		"windows":        len(trace),
	})

	return trace, nil
}

// FrequencyFromPeakTimes partitions a recording of numSamples samples into
// complete windows and computes each window's frequency from the peak times
// (seconds) that fall inside it.
func FrequencyFromPeakTimes(peakTimes []float64, samplingRate, windowSeconds float64, numSamples int) (FrequencyTrace, error) {
	windowSamples, err := WindowSamples(samplingRate, windowSeconds)
	if err != nil {
		return nil, err
	}
	if numSamples < 0 {
		return nil, common.NewInvalidInput("respiration.FrequencyFromPeakTimes",
			"sample count must not be negative, got %d", numSamples)
	}

	times := peakTimes
	if !sort.Float64sAreSorted(times) {
		times = make([]float64, len(peakTimes))
		copy(times, peakTimes)
		sort.Float64s(times)
	}

	windows := Partition(numSamples, windowSamples)
	trace := make(FrequencyTrace, len(windows))

	// both windows and times are ordered, so one pass suffices
	first := 0
	for i, w := range windows {
		start, end := w.StartTime(samplingRate), w.EndTime(samplingRate)
		for first < len(times) && times[first] < start {
			first++
		}
		last := first
		for last < len(times) && times[last] < end {
			last++
		}
		trace[i] = WindowFrequency(times[first:last])
		first = last
	}

	return trace, nil
}

// WindowFrequency returns the mean of 1/interval over consecutive peak times,
// or 0 with fewer than two peaks. Non-positive intervals (repeated times) are
// skipped.
func WindowFrequency(peakTimes []float64) float64 {
	if len(peakTimes) < 2 {
		return 0
	}

	rates := make([]float64, 0, len(peakTimes)-1)
	for i := 1; i < len(peakTimes); i++ {
		interval := peakTimes[i] - peakTimes[i-1]
		if interval > 0 {
			rates = append(rates, 1/interval)
		}
	}
	if len(rates) == 0 {
		return 0
	}

	return stat.Mean(rates, nil)
}

// TraceSummary describes a FrequencyTrace over its non-empty windows
type TraceSummary struct {
	Windows      int     `json:"windows"`
	EmptyWindows int     `json:"empty_windows"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	Max          float64 `json:"max"`
}

// Summary computes statistics of the windows with a frequency estimate
func (t FrequencyTrace) Summary() TraceSummary {
	s := TraceSummary{Windows: len(t)}

	active := make([]float64, 0, len(t))
	for _, f := range t {
		if f > 0 {
			active = append(active, f)
		}
	}
	s.EmptyWindows = len(t) - len(active)
	if len(active) == 0 {
		return s
	}

	s.Mean = common.Mean(active)
	s.Median = common.Median(active)
	s.Max = floats.Max(active)
	return s
}

// String formats the trace for logs
func (t FrequencyTrace) String() string {
	return fmt.Sprintf("%.3f", []float64(t))
}
