package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-breath/algorithms/filters"
	"github.com/RyanBlaney/sonido-breath/algorithms/peaks"
	"github.com/RyanBlaney/sonido-breath/algorithms/respiration"
	"github.com/RyanBlaney/sonido-breath/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logging.SetGlobalLogger(nil)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	preset, err := filters.PresetConfig(filters.MethodKhodadad)
	require.NoError(t, err)
	assert.Equal(t, preset, cfg.Cleaning)

	opts, err := cfg.DetectorOptions()
	require.NoError(t, err)
	assert.Equal(t, peaks.Maxima, opts.Mode)
	assert.True(t, opts.IncludeEndpoints)
	assert.Nil(t, opts.Selectivity)
	assert.Nil(t, opts.Threshold)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
sampling_rate: 250
window_seconds: 10
cleaning:
  method: mice
detector:
  mode: min
  selectivity: 0.3
  threshold: -0.5
  include_endpoints: false
  interpolate: true
log_level: debug
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.SamplingRate)
	assert.Equal(t, 10.0, cfg.WindowSeconds)
	assert.Equal(t, filters.Band{Low: 0.1, High: 20}, cfg.Cleaning.Band)
	assert.Equal(t, 2, cfg.Cleaning.Order)
	assert.Equal(t, filters.Band{Low: 0.05, High: 3}, cfg.SpectralBand, "defaults kept")

	opts, err := cfg.DetectorOptions()
	require.NoError(t, err)
	assert.Equal(t, peaks.Minima, opts.Mode)
	require.NotNil(t, opts.Selectivity)
	assert.Equal(t, 0.3, *opts.Selectivity)
	require.NotNil(t, opts.Threshold)
	assert.Equal(t, -0.5, *opts.Threshold)
	assert.False(t, opts.IncludeEndpoints)
	assert.True(t, opts.Interpolate)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"sampling_rate": 50, "window_seconds": 4, "cleaning": {"method": "none"}}`))
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.SamplingRate)
	assert.Equal(t, filters.MethodNone, cfg.Cleaning.Method)
}

func TestParse_CustomBand(t *testing.T) {
	cfg, err := Parse([]byte(`
cleaning:
  method: custom
  band: {low: 0.2, high: 8}
  order: 3
  detrend: true
`))
	require.NoError(t, err)

	assert.Equal(t, filters.CleanerConfig{
		Method:  MethodCustom,
		Band:    filters.Band{Low: 0.2, High: 8},
		Order:   3,
		Detrend: true,
	}, cfg.Cleaner().Config())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`
sampling_rate: -1
detector:
  mode: sideways
  selectivity: -2
log_level: loud
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling rate")
	assert.Contains(t, err.Error(), "detector mode")
	assert.Contains(t, err.Error(), "selectivity")
	assert.Contains(t, err.Error(), "unknown log level")

	_, err = Parse([]byte(`cleaning: {method: butterworth}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`cleaning: {method: custom, order: 2}`))
	assert.ErrorContains(t, err, "invalid cleaning band")

	_, err = Parse([]byte(`sampling_rate: [1, 2]`))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampling_rate: 100\nwindow_seconds: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.SamplingRate)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAnalysisConfig_FrequencyEstimator(t *testing.T) {
	cfg, err := Parse([]byte(`
sampling_rate: 100
window_seconds: 2
cleaning: {method: none}
`))
	require.NoError(t, err)

	x := make([]float64, 1000)
	for i := range x {
		x[i] = -math.Cos(2 * math.Pi * float64(i) / cfg.SamplingRate)
	}

	fe, err := cfg.FrequencyEstimator()
	require.NoError(t, err)

	trace, err := fe.Compute(x, cfg.SamplingRate, cfg.WindowSeconds)
	require.NoError(t, err)
	assert.Equal(t, respiration.FrequencyTrace{1, 1, 1, 1, 1}, trace)

	spectralTrace, err := cfg.SpectralRateEstimator().Compute(x, cfg.SamplingRate, cfg.WindowSeconds)
	require.NoError(t, err)
	require.Len(t, spectralTrace, 5)
	for _, f := range spectralTrace {
		assert.InDelta(t, 1.0, f, 0.05)
	}
}

func TestApplyLogLevel(t *testing.T) {
	rec := logging.NewRecorder()
	logging.SetGlobalLogger(rec)
	defer logging.SetGlobalLogger(nil)

	cfg := Default()
	cfg.LogLevel = "warn"
	require.NoError(t, cfg.ApplyLogLevel())

	logging.Info("dropped")
	logging.Warn("kept")
	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
}

func TestApplyLogLevel_ReachesExistingComponents(t *testing.T) {
	rec := logging.NewRecorder()
	rec.SetLevel(logging.WarnLevel)
	logging.SetGlobalLogger(rec)
	defer logging.SetGlobalLogger(nil)

	cfg, err := Parse([]byte("sampling_rate: 10\nwindow_seconds: 1\ncleaning: {method: none}\nlog_level: debug\n"))
	require.NoError(t, err)

	fe, err := cfg.FrequencyEstimator()
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyLogLevel())

	_, err = fe.Compute([]float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}, cfg.SamplingRate, cfg.WindowSeconds)
	require.NoError(t, err)

	var messages []string
	for _, e := range rec.EntriesAt(logging.DebugLevel) {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Windowed frequency computed")
	assert.Contains(t, messages, "Extrema detected")
}
