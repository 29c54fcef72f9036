package filters

import (
	"fmt"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/logging"
)

// Method names a respiration cleaning preset
type Method string

const (
	// MethodMice: 0.1-20 Hz, order 2. Wide enough for rodent sniffing.
	MethodMice Method = "mice"
	// MethodKhodadad: linear detrend, then 0.05-3 Hz, order 2.
	MethodKhodadad Method = "khodadad2018"
	// MethodNone passes the signal through unchanged.
	MethodNone Method = "none"
)

// Band is a pass band in Hz
type Band struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// CleanerConfig fully describes a cleaner
type CleanerConfig struct {
	Method  Method `json:"method" yaml:"method"`
	Band    Band   `json:"band" yaml:"band"`
	Order   int    `json:"order" yaml:"order"`
	Detrend bool   `json:"detrend" yaml:"detrend"`
}

// PresetConfig returns the settings of a named preset
func PresetConfig(method Method) (CleanerConfig, error) {
	switch method {
	case MethodMice:
		return CleanerConfig{Method: method, Band: Band{Low: 0.1, High: 20}, Order: 2}, nil
	case MethodKhodadad:
		return CleanerConfig{Method: method, Band: Band{Low: 0.05, High: 3}, Order: 2, Detrend: true}, nil
	case MethodNone:
		return CleanerConfig{Method: method}, nil
	default:
		return CleanerConfig{}, common.NewInvalidInput("filters.PresetConfig", "unknown cleaning method %q", method)
	}
}

// Cleaner removes baseline drift and high-frequency noise from a
// respiratory signal with a zero-phase Butterworth band-pass.
type Cleaner struct {
	config CleanerConfig
	logger logging.Logger
}

// NewCleaner creates a cleaner from a preset
func NewCleaner(method Method) (*Cleaner, error) {
	cfg, err := PresetConfig(method)
	if err != nil {
		return nil, err
	}
	return NewCleanerWithConfig(cfg), nil
}

// NewCleanerWithConfig creates a cleaner with explicit settings. The band is
// validated against the sampling rate on each Clean call.
func NewCleanerWithConfig(cfg CleanerConfig) *Cleaner {
	return &Cleaner{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "respiration_cleaner",
			"method":    string(cfg.Method),
		}),
	}
}

// Config returns the cleaner settings
func (c *Cleaner) Config() CleanerConfig {
	return c.config
}

// Clean returns a filtered copy of signal, same length as the input
func (c *Cleaner) Clean(signal []float64, samplingRate float64) ([]float64, error) {
	const op = "filters.Clean"

	if len(signal) == 0 {
		return nil, common.NewInvalidInput(op, "signal is empty")
	}
	if samplingRate <= 0 {
		return nil, common.NewInvalidInput(op, "sampling rate must be positive, got %v", samplingRate)
	}

	if c.config.Method == MethodNone {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out, nil
	}

	x := signal
	if c.config.Detrend {
		x = Detrend(signal)
	}

	bp, err := NewBandpassFilter(samplingRate, c.config.Band.Low, c.config.Band.High, c.config.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to design cleaning filter: %w", err)
	}

	low, high, _ := bp.GetParameters()
	c.logger.Debug("Cleaning respiratory signal", logging.Fields{
		"samples":       len(signal),
		"sampling_rate": samplingRate,
		"low_cut":       low,
		"high_cut":      high,
	})

	return bp.FiltFilt(x), nil
}
