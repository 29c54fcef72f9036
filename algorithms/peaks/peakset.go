package peaks

import (
	"math"
)

// PeakSet holds detected extrema as two parallel slices ordered by
// increasing location.
//
// Magnitudes are reported in the scanned space: for Minima they are the
// negated input values. OriginalMagnitudes restores the input sign.
type PeakSet struct {
	Locations  []float64 // sample index, fractional when interpolated
	Magnitudes []float64
	Mode       Mode

	// Warnings carries non-fatal diagnostics raised while detecting
	Warnings []string
}

func newPeakSet(mode Mode) *PeakSet {
	return &PeakSet{
		Locations:  []float64{},
		Magnitudes: []float64{},
		Mode:       mode,
	}
}

func (p *PeakSet) add(loc, mag float64) {
	p.Locations = append(p.Locations, loc)
	p.Magnitudes = append(p.Magnitudes, mag)
}

// Len returns the number of extrema
func (p *PeakSet) Len() int {
	return len(p.Locations)
}

// Indices returns locations rounded to the nearest sample
func (p *PeakSet) Indices() []int {
	idx := make([]int, len(p.Locations))
	for i, loc := range p.Locations {
		idx[i] = int(math.Round(loc))
	}
	return idx
}

// Times converts locations to seconds
func (p *PeakSet) Times(samplingRate float64) []float64 {
	times := make([]float64, len(p.Locations))
	for i, loc := range p.Locations {
		times[i] = loc / samplingRate
	}
	return times
}

// OriginalMagnitudes returns magnitudes in the sign of the input signal
func (p *PeakSet) OriginalMagnitudes() []float64 {
	mags := make([]float64, len(p.Magnitudes))
	for i, m := range p.Magnitudes {
		mags[i] = float64(p.Mode) * m
	}
	return mags
}

// filter keeps entries for which keep returns true
func (p *PeakSet) filter(keep func(loc, mag float64) bool) {
	n := 0
	for i := range p.Locations {
		if keep(p.Locations[i], p.Magnitudes[i]) {
			p.Locations[n] = p.Locations[i]
			p.Magnitudes[n] = p.Magnitudes[i]
			n++
		}
	}
	p.Locations = p.Locations[:n]
	p.Magnitudes = p.Magnitudes[:n]
}
