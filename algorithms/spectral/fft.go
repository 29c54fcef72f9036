package spectral

import (
	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-valued input
type FFT struct {
	padFactor int
}

// NewFFT creates an FFT that zero-pads its input to at least padFactor times
// its length (rounded up to a power of two) for finer bin spacing.
func NewFFT(padFactor int) *FFT {
	return &FFT{padFactor: max(padFactor, 1)}
}

// Size returns the transform length used for n input samples
func (f *FFT) Size(n int) int {
	if n <= 0 {
		return 0
	}
	size := 1
	for size < n*f.padFactor {
		size <<= 1
	}
	return size
}

// Compute returns the zero-padded transform of x
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	padded := make([]float64, f.Size(len(x)))
	copy(padded, x)

	// go-dsp handles any length, padding only buys resolution
	return fft.FFTReal(padded)
}

// PowerSpectrum returns the one-sided power |X[k]|² for k = 0..N/2
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	spectrum := f.Compute(x)
	if len(spectrum) == 0 {
		return []float64{}
	}

	bins := len(spectrum)/2 + 1
	power := make([]float64, bins)
	for k := range bins {
		re, im := real(spectrum[k]), imag(spectrum[k])
		power[k] = re*re + im*im
	}
	return power
}

// BinFrequency returns the centre frequency of bin k for a transform of size n
func BinFrequency(k float64, n int, sampleRate float64) float64 {
	return k * sampleRate / float64(n)
}

// DominantFrequency returns the frequency of the strongest bin of x whose
// frequency lies in [low, high], refined by parabolic interpolation over the
// neighbouring bins. ok is false when the band holds no bins or no energy.
func (f *FFT) DominantFrequency(x []float64, sampleRate, low, high float64) (freq float64, ok bool) {
	power := f.PowerSpectrum(x)
	n := f.Size(len(x))
	if len(power) == 0 {
		return 0, false
	}

	best := -1
	for k := range power {
		fk := BinFrequency(float64(k), n, sampleRate)
		if fk < low || fk > high {
			continue
		}
		if best < 0 || power[k] > power[best] {
			best = k
		}
	}
	if best < 0 || power[best] == 0 {
		return 0, false
	}

	peak := float64(best)
	if best > 0 && best < len(power)-1 {
		if offset, _, ok := common.ParabolicVertex(power[best-1], power[best], power[best+1]); ok && offset >= -0.5 && offset <= 0.5 {
			peak += offset
		}
	}

	return BinFrequency(peak, n, sampleRate), true
}
