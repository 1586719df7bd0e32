package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndVariance(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	m := mean(values)
	assert.InDelta(t, 5.0, m, 1e-9)
	assert.InDelta(t, 4.0, variance(values, m), 1e-9)
	assert.InDelta(t, 2.0, stdDev(values, m), 1e-9)

	assert.Zero(t, mean(nil))
	assert.Zero(t, variance(nil, 0))
}

func TestOLSFit(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantSlope     float64
		wantIntercept float64
		wantRSquared  float64
	}{
		{"perfect line", []float64{3, 5, 7, 9, 11}, 2, 3, 1},
		{"constant", []float64{4, 4, 4, 4}, 0, 4, 0},
		{"single value", []float64{9}, 0, 9, 0},
		{"empty", nil, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, intercept, rSquared := olsFit(tt.values)
			assert.InDelta(t, tt.wantSlope, slope, 1e-9)
			assert.InDelta(t, tt.wantIntercept, intercept, 1e-9)
			assert.InDelta(t, tt.wantRSquared, rSquared, 1e-9)
		})
	}
}

func TestOLSFit_NoisyLineBounds(t *testing.T) {
	values := []float64{10, 13, 11, 16, 14, 19, 17, 22}

	slope, _, rSquared := olsFit(values)
	assert.Greater(t, slope, 0.0)
	assert.Greater(t, rSquared, 0.0)
	assert.LessOrEqual(t, rSquared, 1.0)
}

func TestAutocorrelation(t *testing.T) {
	// Perfect alternation correlates fully at lag 2 and inversely at lag 1
	values := []float64{1, -1, 1, -1, 1, -1, 1, -1}

	assert.Less(t, autocorrelation(values, 1), -0.5)
	assert.Greater(t, autocorrelation(values, 2), 0.5)

	assert.Zero(t, autocorrelation(values, 0))
	assert.Zero(t, autocorrelation(values, len(values)))
	assert.Zero(t, autocorrelation([]float64{5, 5, 5, 5}, 1))
}

func TestMeanAbsolutePercentageError(t *testing.T) {
	assert.InDelta(t, 10.0, meanAbsolutePercentageError([]float64{100, 200}, []float64{90, 220}), 1e-9)
	assert.Zero(t, meanAbsolutePercentageError([]float64{100}, []float64{100}))

	// Zero actuals are skipped rather than dividing by zero
	assert.InDelta(t, 10.0, meanAbsolutePercentageError([]float64{0, 100}, []float64{5, 110}), 1e-9)
	assert.Zero(t, meanAbsolutePercentageError([]float64{0, 0}, []float64{5, 5}))
	assert.Zero(t, meanAbsolutePercentageError(nil, nil))
}

func TestRootMeanSquareError(t *testing.T) {
	assert.InDelta(t, 5.0, rootMeanSquareError([]float64{10, 10}, []float64{15, 5}), 1e-9)
	assert.Zero(t, rootMeanSquareError([]float64{3, 3}, []float64{3, 3}))
	assert.Zero(t, rootMeanSquareError(nil, nil))
}

func TestObservationStep(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) MetricObservation {
		return MetricObservation{Timestamp: base.Add(d)}
	}

	hourly := []MetricObservation{at(0), at(time.Hour), at(2 * time.Hour), at(3 * time.Hour)}
	assert.Equal(t, time.Hour, observationStep(hourly))

	// A single outsized gap does not move the median
	gappy := []MetricObservation{at(0), at(time.Hour), at(2 * time.Hour), at(50 * time.Hour)}
	assert.Equal(t, time.Hour, observationStep(gappy))

	assert.Equal(t, 24*time.Hour, observationStep([]MetricObservation{at(0)}))
	assert.Equal(t, 24*time.Hour, observationStep([]MetricObservation{at(0), at(0)}))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-3))
	assert.Equal(t, 1.0, clamp01(7))
	assert.Equal(t, 0.25, clamp01(0.25))
}
