package filters

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design/pass"
)

// settle sets the delay line of s to the steady state reached after a
// constant input u and returns the steady output.
func settle(s *biquad.Section, u float64) float64 {
	c := s.Coefficients
	y := (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2) * u
	s.SetState([2]float64{y - c.B0*u, c.B2*u - c.A2*y})
	return y
}

// settleTimeConstants is how many time constants of the slowest high-pass
// pole FiltFilt pads with, leaving an edge transient of about e^-7.
const settleTimeConstants = 7

// BandpassFilter is a Butterworth band-pass built as a high-pass cascade at
// the low cutoff followed by a low-pass cascade at the high cutoff, each of
// the given order.
//
// Sections come from algo-dsp's Butterworth cascades; odd orders end each
// stage with a first-order section.
type BandpassFilter struct {
	sampleRate float64
	lowCut     float64 // 0 disables the high-pass stage
	highCut    float64
	order      int

	sections []*biquad.Section
}

// NewBandpassFilter designs a band-pass filter.
//
// Parameters:
//   - sampleRate: Sample rate in Hz
//   - lowCut: high-pass corner in Hz; <= 0 disables it
//   - highCut: low-pass corner in Hz; clamped just below Nyquist
//   - order: Butterworth order of each stage
func NewBandpassFilter(sampleRate, lowCut, highCut float64, order int) (*BandpassFilter, error) {
	const op = "filters.NewBandpassFilter"

	if sampleRate <= 0 {
		return nil, common.NewInvalidInput(op, "sample rate must be positive, got %v", sampleRate)
	}
	if order < 1 {
		return nil, common.NewInvalidInput(op, "order must be at least 1, got %d", order)
	}

	nyquist := sampleRate / 2
	if highCut >= nyquist {
		highCut = 0.99 * nyquist
	}
	if highCut <= 0 {
		return nil, common.NewInvalidInput(op, "high cutoff must be positive, got %v", highCut)
	}
	if lowCut < 0 {
		lowCut = 0
	}
	if lowCut >= highCut {
		return nil, common.NewInvalidInput(op,
			"low cutoff (%v Hz) must be below high cutoff (%v Hz)", lowCut, highCut)
	}

	bf := &BandpassFilter{
		sampleRate: sampleRate,
		lowCut:     lowCut,
		highCut:    highCut,
		order:      order,
	}
	bf.computeSections()

	return bf, nil
}

func (bf *BandpassFilter) computeSections() {
	var coeffs []biquad.Coefficients
	if bf.lowCut > 0 {
		coeffs = append(coeffs, pass.ButterworthHP(bf.lowCut, bf.order, bf.sampleRate)...)
	}
	coeffs = append(coeffs, pass.ButterworthLP(bf.highCut, bf.order, bf.sampleRate)...)

	bf.sections = make([]*biquad.Section, len(coeffs))
	for i, c := range coeffs {
		bf.sections[i] = biquad.NewSection(c)
	}
}

// Reset clears every section's state
func (bf *BandpassFilter) Reset() {
	for _, s := range bf.sections {
		s.Reset()
	}
}

// Process filters a single sample through the cascade
func (bf *BandpassFilter) Process(input float64) float64 {
	y := input
	for _, s := range bf.sections {
		y = s.ProcessSample(y)
	}
	return y
}

// ProcessBuffer runs the causal filter over input from a cleared state
func (bf *BandpassFilter) ProcessBuffer(input []float64) []float64 {
	bf.Reset()
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = bf.Process(sample)
	}
	return output
}

// FiltFilt applies the filter forwards and backwards, giving zero phase
// and squared magnitude response. The input is extended by odd reflection at
// both ends and the sections start settled on the first sample of each pass.
// The extension spans several time constants of the high-pass stage (capped
// at len(input)-1), so edge transients have died out by the first real sample.
func (bf *BandpassFilter) FiltFilt(input []float64) []float64 {
	n := len(input)
	if n == 0 {
		return []float64{}
	}

	pad := bf.padLength(n)
	ext := oddExtend(input, pad)

	bf.run(ext)
	reverse(ext)
	bf.run(ext)
	reverse(ext)

	output := make([]float64, n)
	copy(output, ext[pad:pad+n])
	return output
}

// padLength returns the odd-extension length for n samples
func (bf *BandpassFilter) padLength(n int) int {
	pad := 3 * (2*len(bf.sections) + 1)
	if bf.lowCut > 0 {
		// slowest Butterworth pole decays at 2π·fc·sin(π/2N) rad/s
		decay := 2 * math.Pi * bf.lowCut * math.Sin(math.Pi/(2*float64(bf.order)))
		pad = max(pad, int(math.Ceil(settleTimeConstants*bf.sampleRate/decay)))
	}
	return min(pad, n-1)
}

// run filters buf in place starting from the steady state for buf[0]
func (bf *BandpassFilter) run(buf []float64) {
	u := buf[0]
	for _, s := range bf.sections {
		u = settle(s, u)
	}
	for i, sample := range buf {
		buf[i] = bf.Process(sample)
	}
}

func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	for i := range pad {
		ext[i] = 2*x[0] - x[pad-i]
		ext[pad+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// GetFrequencyResponse returns the magnitude response (linear) of a single
// causal pass at frequency.
func (bf *BandpassFilter) GetFrequencyResponse(frequency float64) float64 {
	mag := 1.0
	for _, s := range bf.sections {
		mag *= cmplx.Abs(s.Response(frequency, bf.sampleRate))
	}
	return mag
}

// GetParameters returns the effective cutoffs and order
func (bf *BandpassFilter) GetParameters() (lowCut, highCut float64, order int) {
	return bf.lowCut, bf.highCut, bf.order
}

// Sections returns the designed section coefficients
func (bf *BandpassFilter) Sections() []biquad.Coefficients {
	out := make([]biquad.Coefficients, len(bf.sections))
	for i, s := range bf.sections {
		out[i] = s.Coefficients
	}
	return out
}
