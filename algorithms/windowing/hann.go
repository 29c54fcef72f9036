package windowing

import (
	"fmt"
	"math"
)

// Hann is a Hann (raised cosine) taper
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
	coherentGain float64
}

// NewHann creates a new Hann window. Symmetric windows end on zero at both
// sides; periodic ones suit spectral analysis.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1
		h.coherentGain = 1
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	sum := 0.0
	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
		sum += h.coefficients[i]
	}
	if h.size > 0 {
		h.coherentGain = sum / float64(h.size)
	}
}

// Apply returns a windowed copy of signal
func (h *Hann) Apply(signal []float64) ([]float64, error) {
	if len(signal) != h.size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	windowed := make([]float64, h.size)
	for i, c := range h.coefficients {
		windowed[i] = signal[i] * c
	}

	return windowed, nil
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// CoherentGain is the mean coefficient, used to rescale amplitudes
func (h *Hann) CoherentGain() float64 {
	return h.coherentGain
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}
