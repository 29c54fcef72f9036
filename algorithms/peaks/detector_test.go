package peaks

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-breath/algorithms/common"
	"github.com/RyanBlaney/sonido-breath/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = &logging.NoOpLogger{}
	return opts
}

func noisySignal(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*float64(i)/37) + 0.3*rng.NormFloat64()
	}
	return x
}

func TestDetect_InvertedCosineOnePeakPerPeriod(t *testing.T) {
	const fs, periods = 100, 5
	x := make([]float64, fs*periods)
	for i := range x {
		x[i] = -math.Cos(2 * math.Pi * float64(i) / fs)
	}

	ps, err := Detect(x, quietOptions())
	require.NoError(t, err)

	require.Equal(t, periods, ps.Len())
	for k, loc := range ps.Locations {
		assert.InDelta(t, float64(fs/2+k*fs), loc, 1.0)
		assert.InDelta(t, 1.0, ps.Magnitudes[k], 1e-9)
	}
}

func TestDetect_InterpolatedSineVertex(t *testing.T) {
	const fs, freq = 50.0, 1.3
	n := 400
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}

	opts := quietOptions()
	opts.IncludeEndpoints = false
	opts.Interpolate = true

	ps, err := Detect(x, opts)
	require.NoError(t, err)

	// maxima at t = (k + 1/4) / freq
	samplesPerPeriod := fs / freq
	require.NotZero(t, ps.Len())
	for k, loc := range ps.Locations {
		want := (float64(k) + 0.25) * samplesPerPeriod
		assert.InDelta(t, want, loc, 0.1, "peak %d", k)
		assert.InDelta(t, 1.0, ps.Magnitudes[k], 1e-2, "peak %d", k)
	}
	// the maximum near sample 394 never falls far enough to be confirmed
	assert.Equal(t, 10, ps.Len())
}

func TestDetect_FlatSignal(t *testing.T) {
	x := []float64{3, 3, 3, 3, 3, 3}

	for _, sel := range []float64{0, 0.5, 100} {
		opts := quietOptions().WithSelectivity(sel)

		ps, err := Detect(x, opts)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 5}, ps.Locations, "sel=%v", sel)
		assert.Equal(t, []float64{3, 3}, ps.Magnitudes, "sel=%v", sel)

		opts.IncludeEndpoints = false
		ps, err = Detect(x, opts)
		require.NoError(t, err)
		assert.Zero(t, ps.Len(), "sel=%v", sel)
	}
}

func TestDetect_SelectivityIgnoresSmallWiggles(t *testing.T) {
	x := []float64{0, 5, 4.5, 5.2, 0, 3, 0}

	ps, err := Detect(x, quietOptions())
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 5}, ps.Locations)
	assert.Equal(t, []float64{5.2, 3}, ps.Magnitudes)
}

func TestDetect_Endpoints(t *testing.T) {
	tests := []struct {
		name      string
		signal    []float64
		endpoints bool
		want      []float64
	}{
		{"leading endpoint peak", []float64{5, 0, 3, 0, 1}, true, []float64{0, 2}},
		{"leading endpoint excluded", []float64{5, 0, 3, 0, 1}, false, []float64{2}},
		{"rising tail kept as endpoint", []float64{0, 5, 0, 4, 6}, true, []float64{1, 4}},
		{"rising tail without endpoints", []float64{0, 5, 0, 4, 6}, false, []float64{1}},
		{"unconfirmed interior peak dropped", []float64{0, 5, 0, 4, 3.5}, true, []float64{1}},
		{"monotone rise", []float64{0, 1, 2, 3, 4}, true, []float64{4}},
		{"monotone fall", []float64{4, 3, 2, 1, 0}, true, []float64{0}},
		{"monotone without endpoints", []float64{0, 1, 2, 3, 4}, false, []float64{}},
		{"single sample", []float64{7}, true, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := quietOptions()
			opts.IncludeEndpoints = tt.endpoints

			ps, err := Detect(tt.signal, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ps.Locations)
		})
	}
}

func TestDetect_PlateauInterpolation(t *testing.T) {
	x := []float64{0, 2, 2, 0}

	ps, err := Detect(x, quietOptions())
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, ps.Locations)

	opts := quietOptions()
	opts.Interpolate = true
	ps, err = Detect(x, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, ps.Locations[0], 1e-12)
	assert.InDelta(t, 2.25, ps.Magnitudes[0], 1e-12)
}

func TestDetect_InterpolationSkipsEndpoints(t *testing.T) {
	x := []float64{5, 0, 3, 1, 0}

	opts := quietOptions()
	opts.Interpolate = true
	ps, err := Detect(x, opts)
	require.NoError(t, err)

	require.Equal(t, 2, ps.Len())
	assert.Equal(t, 0.0, ps.Locations[0])
	assert.Equal(t, 5.0, ps.Magnitudes[0])
	assert.NotEqual(t, 2.0, ps.Locations[1])
}

func TestDetect_Threshold(t *testing.T) {
	x := []float64{0, 5, 0, 3, 0, 4, 0}

	ps, err := Detect(x, quietOptions().WithThreshold(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5}, ps.Locations, "threshold is strict")

	ps, err = Detect(x, quietOptions().WithThreshold(5.0001))
	require.NoError(t, err)
	assert.Zero(t, ps.Len())
}

func TestDetect_ThresholdAboveMaximumIsEmpty(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		x := noisySignal(seed, 500)
		_, hi := common.Range(x)

		ps, err := Detect(x, quietOptions().WithThreshold(hi+1e-9))
		require.NoError(t, err)
		assert.Zero(t, ps.Len(), "seed %d", seed)
	}
}

func TestDetect_LocationsStrictlyIncreasingAndInRange(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		x := noisySignal(seed, 1000)

		for _, mode := range []Mode{Maxima, Minima} {
			for _, interp := range []bool{false, true} {
				opts := quietOptions().WithMode(mode)
				opts.Interpolate = interp

				ps, err := Detect(x, opts)
				require.NoError(t, err)
				require.Len(t, ps.Magnitudes, ps.Len())

				for i, loc := range ps.Locations {
					assert.GreaterOrEqual(t, loc, 0.0)
					assert.LessOrEqual(t, loc, float64(len(x)-1))
					if i > 0 {
						assert.Greater(t, loc, ps.Locations[i-1], "seed %d mode %s", seed, mode)
					}
				}
			}
		}
	}
}

func TestDetect_MinimaMatchesMaximaOfNegatedSignal(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		x := noisySignal(seed, 600)
		neg := common.Scaled(x, -1)

		minOpts := quietOptions().WithMode(Minima).WithThreshold(0.2)
		minOpts.Interpolate = true
		maxOpts := quietOptions().WithThreshold(-0.2)
		maxOpts.Interpolate = true

		mins, err := Detect(x, minOpts)
		require.NoError(t, err)
		maxs, err := Detect(neg, maxOpts)
		require.NoError(t, err)

		assert.Equal(t, maxs.Locations, mins.Locations)
		assert.Equal(t, maxs.Magnitudes, mins.Magnitudes)
		assert.Equal(t, Minima, mins.Mode)
	}
}

func TestDetect_MinimaOriginalMagnitudes(t *testing.T) {
	x := []float64{0, -5, 0, -3, 0}

	ps, err := Detect(x, quietOptions().WithMode(Minima))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3}, ps.Locations)
	assert.Equal(t, []float64{5, 3}, ps.Magnitudes)
	assert.Equal(t, []float64{-5, -3}, ps.OriginalMagnitudes())
}

func TestDetect_DoesNotMutateInput(t *testing.T) {
	x := noisySignal(3, 200)
	orig := make([]float64, len(x))
	copy(orig, x)

	_, err := Detect(x, quietOptions().WithMode(Minima))
	require.NoError(t, err)
	assert.Equal(t, orig, x)
}

func TestDetect_InvalidInput(t *testing.T) {
	_, err := Detect(nil, quietOptions())
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = Detect([]float64{1, 2, 1}, quietOptions().WithMode(Mode(2)))
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	var inv *common.InvalidInputError
	assert.ErrorAs(t, err, &inv)
}

func TestDetectVector(t *testing.T) {
	x := []float64{0, 5, 0, 3, 0}
	d := NewDetector(quietOptions())

	want, err := d.Detect(x)
	require.NoError(t, err)

	row, err := d.DetectVector(mat.NewDense(1, len(x), x))
	require.NoError(t, err)
	assert.Equal(t, want.Locations, row.Locations)

	col, err := d.DetectVector(mat.NewVecDense(len(x), x))
	require.NoError(t, err)
	assert.Equal(t, want.Locations, col.Locations)

	_, err = d.DetectVector(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDetectComplex(t *testing.T) {
	rec := logging.NewRecorder()
	opts := DefaultOptions()
	opts.Logger = rec
	d := NewDetector(opts)

	ps, err := d.DetectComplex([]complex128{0, 3 + 4i, 0, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, ps.Locations)
	assert.Equal(t, []float64{5, 2}, ps.Magnitudes)
	assert.Equal(t, []string{complexInputWarning}, ps.Warnings)
	assert.Len(t, rec.EntriesAt(logging.WarnLevel), 1)

	// purely real samples keep their sign and raise nothing
	ps, err = d.DetectComplex([]complex128{0, -5, 0, -3, 0})
	require.NoError(t, err)
	assert.Empty(t, ps.Warnings)
	assert.Len(t, rec.EntriesAt(logging.WarnLevel), 1)
}
