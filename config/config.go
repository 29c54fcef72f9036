// Package config loads and validates analysis settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-breath/algorithms/filters"
	"github.com/RyanBlaney/sonido-breath/algorithms/peaks"
	"github.com/RyanBlaney/sonido-breath/algorithms/respiration"
	"github.com/RyanBlaney/sonido-breath/logging"
	"gopkg.in/yaml.v3"
)

// MethodCustom uses the band, order and detrend flag given in the file
const MethodCustom filters.Method = "custom"

// AnalysisConfig configures a breathing frequency analysis
type AnalysisConfig struct {
	SamplingRate  float64               `json:"sampling_rate" yaml:"sampling_rate"` // Hz
	WindowSeconds float64               `json:"window_seconds" yaml:"window_seconds"`
	Cleaning      filters.CleanerConfig `json:"cleaning" yaml:"cleaning"`
	Detector      DetectorConfig        `json:"detector" yaml:"detector"`
	SpectralBand  filters.Band          `json:"spectral_band" yaml:"spectral_band"` // Hz
	LogLevel      string                `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// DetectorConfig mirrors peaks.Options. Nil pointers keep the detector
// defaults.
type DetectorConfig struct {
	Selectivity      *float64 `json:"selectivity,omitempty" yaml:"selectivity,omitempty"`
	Threshold        *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Mode             string   `json:"mode" yaml:"mode"` // "max" or "min"
	IncludeEndpoints *bool    `json:"include_endpoints,omitempty" yaml:"include_endpoints,omitempty"`
	Interpolate      bool     `json:"interpolate" yaml:"interpolate"`
}

// Default returns the settings of the reference analysis: 1 kHz recordings,
// 20 s windows and the khodadad2018 cleaning preset.
func Default() *AnalysisConfig {
	return &AnalysisConfig{
		SamplingRate:  1000,
		WindowSeconds: 20,
		Cleaning: filters.CleanerConfig{
			Method:  filters.MethodKhodadad,
			Band:    filters.Band{Low: 0.05, High: 3},
			Order:   2,
			Detrend: true,
		},
		Detector: DetectorConfig{
			Mode: "max",
		},
		SpectralBand: filters.Band{Low: 0.05, High: 3},
		LogLevel:     "info",
	}
}

// Load reads a YAML (or JSON) file on top of Default
func Load(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML (or JSON) on top of Default and validates the result.
// A preset cleaning method without an explicit band takes the preset's
// band, order and detrend flag.
func Parse(data []byte) (*AnalysisConfig, error) {
	cfg := Default()
	cfg.Cleaning = filters.CleanerConfig{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.fillCleaning(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AnalysisConfig) fillCleaning() error {
	if c.Cleaning.Method == "" {
		c.Cleaning.Method = filters.MethodKhodadad
	}
	if c.Cleaning.Method == MethodCustom || c.Cleaning.Band != (filters.Band{}) {
		return nil
	}

	preset, err := filters.PresetConfig(c.Cleaning.Method)
	if err != nil {
		return err
	}
	c.Cleaning = preset
	return nil
}

// Validate checks every field and reports all problems at once
func (c *AnalysisConfig) Validate() error {
	var problems []string

	if _, err := respiration.WindowSamples(c.SamplingRate, c.WindowSeconds); err != nil {
		problems = append(problems, err.Error())
	}

	switch c.Cleaning.Method {
	case filters.MethodNone:
	case filters.MethodMice, filters.MethodKhodadad, MethodCustom:
		if c.Cleaning.Order < 1 {
			problems = append(problems, fmt.Sprintf("cleaning order must be at least 1, got %d", c.Cleaning.Order))
		}
		if c.Cleaning.Band.High <= 0 || c.Cleaning.Band.Low >= c.Cleaning.Band.High {
			problems = append(problems, fmt.Sprintf("invalid cleaning band %v-%v Hz", c.Cleaning.Band.Low, c.Cleaning.Band.High))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cleaning method %q", c.Cleaning.Method))
	}

	if _, err := parseMode(c.Detector.Mode); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Detector.Selectivity != nil && *c.Detector.Selectivity < 0 {
		problems = append(problems, fmt.Sprintf("selectivity must not be negative, got %v", *c.Detector.Selectivity))
	}

	if c.SpectralBand.Low >= c.SpectralBand.High {
		problems = append(problems, fmt.Sprintf("invalid spectral band %v-%v Hz", c.SpectralBand.Low, c.SpectralBand.High))
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func parseMode(s string) (peaks.Mode, error) {
	switch strings.ToLower(s) {
	case "max", "maxima", "":
		return peaks.Maxima, nil
	case "min", "minima":
		return peaks.Minima, nil
	default:
		return 0, fmt.Errorf("detector mode must be \"max\" or \"min\", got %q", s)
	}
}

// DetectorOptions builds peak detector options
func (c *AnalysisConfig) DetectorOptions() (peaks.Options, error) {
	mode, err := parseMode(c.Detector.Mode)
	if err != nil {
		return peaks.Options{}, err
	}

	opts := peaks.DefaultOptions().WithMode(mode)
	if c.Detector.Selectivity != nil {
		opts = opts.WithSelectivity(*c.Detector.Selectivity)
	}
	if c.Detector.Threshold != nil {
		opts = opts.WithThreshold(*c.Detector.Threshold)
	}
	if c.Detector.IncludeEndpoints != nil {
		opts.IncludeEndpoints = *c.Detector.IncludeEndpoints
	}
	opts.Interpolate = c.Detector.Interpolate

	return opts, nil
}

// Cleaner builds the configured signal cleaner
func (c *AnalysisConfig) Cleaner() *filters.Cleaner {
	return filters.NewCleanerWithConfig(c.Cleaning)
}

// FrequencyEstimator builds a windowed frequency estimator from the
// configured cleaner and detector
func (c *AnalysisConfig) FrequencyEstimator() (*respiration.FrequencyEstimator, error) {
	opts, err := c.DetectorOptions()
	if err != nil {
		return nil, err
	}
	return respiration.NewFrequencyEstimatorWithOptions(c.Cleaner(), opts), nil
}

// SpectralRateEstimator builds the FFT cross-check for the configured band
func (c *AnalysisConfig) SpectralRateEstimator() *respiration.SpectralRateEstimator {
	return respiration.NewSpectralRateEstimator(c.SpectralBand)
}

// ApplyLogLevel sets the global logger level. Components built earlier
// follow it, since derived loggers share their parent's level.
func (c *AnalysisConfig) ApplyLogLevel() error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	return nil
}
