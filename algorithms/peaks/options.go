package peaks

import (
	"fmt"

	"github.com/RyanBlaney/sonido-breath/logging"
)

// Mode selects which extrema are detected. Its value is also the sign
// applied to the signal before the scan.
type Mode int

const (
	Maxima Mode = 1
	Minima Mode = -1
)

func (m Mode) String() string {
	switch m {
	case Maxima:
		return "maxima"
	case Minima:
		return "minima"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is Maxima or Minima
func (m Mode) Valid() bool {
	return m == Maxima || m == Minima
}

// Options configures a Detector.
//
// Selectivity and Threshold are pointers so that "unset" can't collide with a
// real value. A nil Selectivity defaults to a quarter of the signal range; a
// nil Threshold keeps every peak.
type Options struct {
	Selectivity      *float64
	Threshold        *float64
	Mode             Mode
	IncludeEndpoints bool
	Interpolate      bool

	// Logger receives non-fatal diagnostics. Nil uses the package logger.
	Logger logging.Logger
}

// DefaultOptions returns maxima detection with endpoints included
func DefaultOptions() Options {
	return Options{
		Mode:             Maxima,
		IncludeEndpoints: true,
	}
}

// WithSelectivity returns a copy of o with a fixed selectivity
func (o Options) WithSelectivity(sel float64) Options {
	o.Selectivity = &sel
	return o
}

// WithThreshold returns a copy of o with a magnitude floor
func (o Options) WithThreshold(thresh float64) Options {
	o.Threshold = &thresh
	return o
}

// WithMode returns a copy of o detecting the given extrema
func (o Options) WithMode(mode Mode) Options {
	o.Mode = mode
	return o
}
