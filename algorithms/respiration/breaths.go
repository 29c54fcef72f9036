package respiration

import (
	"fmt"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/algorithms/peaks"
)

// Extremum is a detected inhalation peak or exhalation trough
type Extremum struct {
	Location  float64 `json:"location"` // sample index
	Time      float64 `json:"time"`     // seconds
	Amplitude float64 `json:"amplitude"`
}

// Breaths holds the inhalation peaks and exhalation troughs of a cleaned
// signal. Amplitudes carry the sign of the signal.
type Breaths struct {
	Inhalations []Extremum `json:"inhalations"`
	Exhalations []Extremum `json:"exhalations"`
}

// DetectBreaths finds inhalation peaks (maxima) and exhalation troughs
// (minima) of an already cleaned signal with the same detector settings.
// opts.Mode is ignored.
func DetectBreaths(cleaned []float64, samplingRate float64, opts peaks.Options) (*Breaths, error) {
	if samplingRate <= 0 {
		return nil, common.NewInvalidInput("respiration.DetectBreaths",
			"sampling rate must be positive, got %v", samplingRate)
	}

	inhale, err := peaks.Detect(cleaned, opts.WithMode(peaks.Maxima))
	if err != nil {
		return nil, fmt.Errorf("failed to detect inhalation peaks: %w", err)
	}
	exhale, err := peaks.Detect(cleaned, opts.WithMode(peaks.Minima))
	if err != nil {
		return nil, fmt.Errorf("failed to detect exhalation troughs: %w", err)
	}

	return &Breaths{
		Inhalations: extrema(inhale, samplingRate),
		Exhalations: extrema(exhale, samplingRate),
	}, nil
}

func extrema(ps *peaks.PeakSet, samplingRate float64) []Extremum {
	amps := ps.OriginalMagnitudes()
	out := make([]Extremum, ps.Len())
	for i, loc := range ps.Locations {
		out[i] = Extremum{
			Location:  loc,
			Time:      loc / samplingRate,
			Amplitude: amps[i],
		}
	}
	return out
}

// Times returns the inhalation peak times, the input of InstantaneousRate
// and FrequencyFromPeakTimes.
func (b *Breaths) Times() []float64 {
	times := make([]float64, len(b.Inhalations))
	for i, e := range b.Inhalations {
		times[i] = e.Time
	}
	return times
}
