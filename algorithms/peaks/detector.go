package peaks

import (
	"math/cmplx"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/logging"
	"gonum.org/v1/gonum/mat"
)

const complexInputWarning = "absolute value of data will be used"

// scanState is the state of the candidate scan
type scanState int

const (
	// searchingForRise: waiting for a candidate more than sel above the floor
	searchingForRise scanState = iota
	// searchingForFall: holding a tentative peak until a candidate falls more than sel below it
	searchingForFall
)

// Detector finds local maxima or minima of a noisy 1-D signal that stand out
// from their surroundings by at least a selectivity margin.
//
// The scan only ever looks for maxima; Minima runs the same scan on the
// negated signal.
type Detector struct {
	opts   Options
	logger logging.Logger
}

// NewDetector creates a detector with the given options
func NewDetector(opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithFields(logging.Fields{
			"component": "peak_detector",
		})
	}

	return &Detector{
		opts:   opts,
		logger: logger,
	}
}

// Detect is shorthand for NewDetector(opts).Detect(signal)
func Detect(signal []float64, opts Options) (*PeakSet, error) {
	return NewDetector(opts).Detect(signal)
}

// Options returns the detector's options
func (d *Detector) Options() Options {
	return d.opts
}

// Detect returns the extrema of signal. The signal is not modified.
func (d *Detector) Detect(signal []float64) (*PeakSet, error) {
	return d.detect(signal, nil)
}

// DetectComplex detects extrema of complex samples. If any sample has a
// non-zero imaginary part the magnitudes are used and a warning is logged
// and attached to the result; otherwise the real parts are used.
func (d *Detector) DetectComplex(signal []complex128) (*PeakSet, error) {
	isReal := true
	for _, c := range signal {
		if imag(c) != 0 {
			isReal = false
			break
		}
	}

	x := make([]float64, len(signal))
	var warnings []string
	if isReal {
		for i, c := range signal {
			x[i] = real(c)
		}
	} else {
		for i, c := range signal {
			x[i] = cmplx.Abs(c)
		}
		warnings = append(warnings, complexInputWarning)
		d.logger.Warn("Complex input coerced to magnitude", logging.Fields{
			"samples": len(signal),
		})
	}

	return d.detect(x, warnings)
}

// DetectVector detects extrema of a row or column vector. Any other shape
// is an InvalidInputError.
func (d *Detector) DetectVector(m mat.Matrix) (*PeakSet, error) {
	r, c := m.Dims()
	switch {
	case r == 1:
		return d.detect(mat.Row(nil, 0, m), nil)
	case c == 1:
		return d.detect(mat.Col(nil, 0, m), nil)
	default:
		return nil, common.NewInvalidInput("peaks.DetectVector",
			"data must be one-dimensional, got %dx%d", r, c)
	}
}

func (d *Detector) detect(x0 []float64, warnings []string) (*PeakSet, error) {
	if len(x0) == 0 {
		return nil, common.NewInvalidInput("peaks.Detect", "signal is empty")
	}
	mode := d.opts.Mode
	if !mode.Valid() {
		return nil, common.NewInvalidInput("peaks.Detect",
			"mode must be %d (maxima) or %d (minima), got %d", Maxima, Minima, int(mode))
	}

	lo, hi := common.Range(x0)
	sel := (hi - lo) / 4
	if d.opts.Selectivity != nil {
		sel = *d.opts.Selectivity
	}

	x := common.Scaled(x0, float64(mode))

	ps := newPeakSet(mode)
	ps.Warnings = warnings

	ind, interior := candidates(x, d.opts.IncludeEndpoints)
	if interior == 0 {
		monotonePeaks(ps, x, sel, d.opts.IncludeEndpoints)
	} else {
		scan(ps, x, ind, sel, d.opts.IncludeEndpoints)
	}

	if d.opts.Interpolate {
		interpolate(ps, x)
	}

	if d.opts.Threshold != nil {
		thresh := float64(mode) * *d.opts.Threshold
		ps.filter(func(_, mag float64) bool {
			return mag > thresh
		})
	}

	d.logger.Debug("Extrema detected", logging.Fields{
		"mode":        mode.String(),
		"samples":     len(x0),
		"candidates":  len(ind),
		"selectivity": sel,
		"peaks":       ps.Len(),
	})

	return ps, nil
}

// candidates returns the indices where the derivative changes sign, with the
// endpoints added when requested. A zero difference counts as falling so a
// plateau yields a single candidate. interior is the count without endpoints.
func candidates(x []float64, includeEndpoints bool) (ind []int, interior int) {
	dx := common.Diff(x)

	ind = make([]int, 0, len(dx)/2+2)
	if includeEndpoints {
		ind = append(ind, 0)
	}
	for i := 0; i+1 < len(dx); i++ {
		if (dx[i] > 0) != (dx[i+1] > 0) {
			ind = append(ind, i+1)
			interior++
		}
	}
	if includeEndpoints && len(x) > 1 {
		ind = append(ind, len(x)-1)
	}

	return ind, interior
}

// scan walks the candidates left to right. A tentative peak is held until a
// later candidate falls more than sel below it; a higher candidate replaces
// it in the meantime. The confirming candidate becomes the floor the next
// peak has to rise above.
func scan(ps *PeakSet, x []float64, ind []int, sel float64, includeEndpoints bool) {
	floor := x[ind[0]]
	for _, i := range ind[1:] {
		floor = min(floor, x[i])
	}

	state := searchingForRise
	tempLoc, tempMag := 0, floor

	for _, i := range ind {
		v := x[i]

		switch state {
		case searchingForRise:
			if v > floor+sel {
				tempLoc, tempMag = i, v
				state = searchingForFall
			} else if v < floor {
				floor = v
			}

		case searchingForFall:
			if v > tempMag {
				tempLoc, tempMag = i, v
			} else if tempMag-v > sel {
				ps.add(float64(tempLoc), tempMag)
				floor = v
				state = searchingForRise
			}
		}
	}

	// The last sample can't be followed by a fall, so a forced endpoint
	// still holding the tentative peak is kept. Anything else is dropped.
	if state == searchingForFall && includeEndpoints && tempLoc == len(x)-1 {
		ps.add(float64(tempLoc), tempMag)
	}
}

// monotonePeaks handles signals without interior extrema, where only the
// endpoints can be peaks.
func monotonePeaks(ps *PeakSet, x []float64, sel float64, includeEndpoints bool) {
	if !includeEndpoints {
		return
	}

	n := len(x)
	first, last := x[0], x[n-1]
	lo, hi := common.Range(x)

	switch {
	case n == 1:
		ps.add(0, first)
	case lo == hi:
		// flat: both ends of the plateau
		ps.add(0, first)
		ps.add(float64(n-1), last)
	case last > first && last-first > sel:
		ps.add(float64(n-1), last)
	case first > last && first-last > sel:
		ps.add(0, first)
	}
}

// interpolate moves each interior peak to the vertex of the parabola through
// it and its two neighbours.
func interpolate(ps *PeakSet, x []float64) {
	for k, loc := range ps.Locations {
		i := int(loc)
		if i < 1 || i >= len(x)-1 {
			continue
		}

		offset, value, ok := common.ParabolicVertex(x[i-1], x[i], x[i+1])
		if !ok {
			continue
		}
		ps.Locations[k] = loc + offset
		ps.Magnitudes[k] = value
	}
}
