package respiration

import (
	"fmt"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/algorithms/filters"
	"github.com/RyanBlaney/sonido-breath/algorithms/spectral"
	"github.com/RyanBlaney/sonido-breath/algorithms/windowing"
)

const spectralPadFactor = 4

// SpectralRateEstimator estimates breathing frequency per window from the
// strongest spectral component inside a breathing band. It needs no peak
// detection, which makes it a cross-check for FrequencyEstimator.
type SpectralRateEstimator struct {
	band filters.Band
	fft  *spectral.FFT
}

// NewSpectralRateEstimator searches for the dominant frequency inside band
func NewSpectralRateEstimator(band filters.Band) *SpectralRateEstimator {
	return &SpectralRateEstimator{
		band: band,
		fft:  spectral.NewFFT(spectralPadFactor),
	}
}

// Compute returns one frequency per complete window, 0 where the band holds
// no energy. Windows are mean-removed and Hann-tapered before the FFT.
func (se *SpectralRateEstimator) Compute(signal []float64, samplingRate, windowSeconds float64) (FrequencyTrace, error) {
	windowSamples, err := WindowSamples(samplingRate, windowSeconds)
	if err != nil {
		return nil, err
	}
	if len(signal) == 0 {
		return nil, common.NewInvalidInput("respiration.SpectralRate", "signal is empty")
	}
	if se.band.High <= se.band.Low {
		return nil, common.NewInvalidInput("respiration.SpectralRate",
			"band low (%v Hz) must be below band high (%v Hz)", se.band.Low, se.band.High)
	}

	hann := windowing.NewHann(windowSamples, false)
	windows := Partition(len(signal), windowSamples)
	trace := make(FrequencyTrace, len(windows))

	segment := make([]float64, windowSamples)
	for i, w := range windows {
		copy(segment, signal[w.Start:w.End])
		mean := common.Mean(segment)
		for j := range segment {
			segment[j] -= mean
		}

		tapered, err := hann.Apply(segment)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Index, err)
		}

		if f, ok := se.fft.DominantFrequency(tapered, samplingRate, se.band.Low, se.band.High); ok {
			trace[i] = f
		}
	}

	return trace, nil
}
