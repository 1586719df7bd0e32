package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/pma-analytics-go/pkg/errors"
)

func sineSeries(n, period int, base, amplitude float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = base + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period))
	}
	return values
}

func assertForecastInvariants(t *testing.T, points []ForecastPoint) {
	t.Helper()
	for i, p := range points {
		assert.GreaterOrEqual(t, p.PredictedValue, 0.0, "point %d predicted value", i)
		assert.LessOrEqual(t, p.Interval.Lower, p.PredictedValue, "point %d lower bound", i)
		assert.GreaterOrEqual(t, p.Interval.Upper, p.PredictedValue, "point %d upper bound", i)
		assert.GreaterOrEqual(t, p.Confidence, 0.0, "point %d confidence", i)
		assert.LessOrEqual(t, p.Confidence, 1.0, "point %d confidence", i)
		if i > 0 {
			assert.LessOrEqual(t, p.Confidence, points[i-1].Confidence+1e-9,
				"confidence must not increase at point %d", i)
			assert.True(t, p.Timestamp.After(points[i-1].Timestamp))
		}
	}
}

func TestModelByName(t *testing.T) {
	for _, name := range []string{"linear", "exponential", "seasonal", "arima"} {
		model, err := ModelByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, model.Name())
	}

	_, err := ModelByName("prophet")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestForecastModels_InsufficientData(t *testing.T) {
	history := makeHistory("sales", linearSeries(4, 100, 1))

	for _, name := range []string{"linear", "exponential", "seasonal", "arima"} {
		t.Run(name, func(t *testing.T) {
			model, err := ModelByName(name)
			require.NoError(t, err)
			_, _, err = model.FitForecast(history, 7)
			require.Error(t, err)
			assert.True(t, errors.IsInsufficientData(err))
		})
	}
}

func TestLinearModel_ExtrapolatesCleanLine(t *testing.T) {
	history := makeHistory("revenue", linearSeries(30, 100, 2))

	points, accuracy, err := linearModel{}.FitForecast(history, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assertForecastInvariants(t, points)
	assert.Greater(t, accuracy, 0.99)

	// Last value is 158; a clean line continues at slope 2
	assert.InDelta(t, 160, points[0].PredictedValue, 0.5)
	assert.InDelta(t, 172, points[6].PredictedValue, 0.5)
}

func TestLinearModel_FloorsNegativePredictions(t *testing.T) {
	history := makeHistory("stock", linearSeries(10, 9, -1)) // heading below zero

	points, _, err := linearModel{}.FitForecast(history, 7)
	require.NoError(t, err)
	assertForecastInvariants(t, points)
	assert.Equal(t, 0.0, points[6].PredictedValue)
}

func TestLinearModel_ConfidenceFloor(t *testing.T) {
	history := makeHistory("revenue", linearSeries(30, 100, 2))

	points, _, err := linearModel{}.FitForecast(history, 20)
	require.NoError(t, err)
	assert.Equal(t, 0.3, points[19].Confidence)
}

func TestExponentialModel_FlatSeriesHoldsLevel(t *testing.T) {
	history := makeHistory("sessions", linearSeries(30, 100, 0))

	points, accuracy, err := exponentialModel{}.FitForecast(history, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assertForecastInvariants(t, points)
	assert.Greater(t, accuracy, 0.95)
	for _, p := range points {
		assert.InDelta(t, 100, p.PredictedValue, 1)
	}
}

func TestExponentialModel_ConfidenceDecay(t *testing.T) {
	history := makeHistory("sessions", linearSeries(30, 100, 0))

	points, _, err := exponentialModel{}.FitForecast(history, 30)
	require.NoError(t, err)

	assert.InDelta(t, 0.8*math.Exp(-0.1), points[0].Confidence, 1e-9)
	assert.Equal(t, 0.2, points[29].Confidence)
}

func TestTailGrowthRate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		delta  float64
	}{
		{name: "flat", values: []float64{10, 10, 10, 10, 10, 10}, want: 1, delta: 1e-9},
		{name: "doubling clamped", values: []float64{1, 2, 4, 8, 16, 32}, want: 2, delta: 1e-9},
		{name: "zero guarded", values: []float64{0, 0, 0, 0, 0, 0}, want: 1, delta: 1e-9},
		{name: "mild growth", values: []float64{100, 101, 102.01, 103.03, 104.06, 105.1}, want: 1.01, delta: 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tailGrowthRate(tt.values), tt.delta)
		})
	}
}

func TestSeasonalModel_DetectsWeeklyCycle(t *testing.T) {
	values := sineSeries(60, 7, 100, 20)

	period, strength, detected := detectSeasonalPeriod(values)
	assert.True(t, detected)
	assert.GreaterOrEqual(t, period, 5)
	assert.LessOrEqual(t, period, 9)
	assert.Greater(t, strength, 0.3)
}

func TestSeasonalModel_NoDominantLagDefaultsToSeven(t *testing.T) {
	// Only lag 2 is a candidate here (n/3 = 2) and its autocorrelation is
	// -0.2, below the detection threshold
	values := []float64{1, 5, 3, 2, 4, 3}

	period, _, detected := detectSeasonalPeriod(values)
	assert.False(t, detected)
	assert.Equal(t, 7, period)
}

func TestSeasonalModel_ForecastFollowsCycle(t *testing.T) {
	history := makeHistory("traffic", sineSeries(60, 7, 100, 20))

	points, accuracy, err := seasonalModel{}.FitForecast(history, 14)
	require.NoError(t, err)
	require.Len(t, points, 14)

	assertForecastInvariants(t, points)
	assert.Greater(t, accuracy, 0.5)

	// Forecast should oscillate, not flatline: spread across the horizon
	// should reflect the seasonal amplitude
	minV, maxV := points[0].PredictedValue, points[0].PredictedValue
	for _, p := range points {
		minV = math.Min(minV, p.PredictedValue)
		maxV = math.Max(maxV, p.PredictedValue)
	}
	assert.Greater(t, maxV-minV, 10.0)
}

func TestSeasonalModel_ShortHistoryFailsAsModelFailure(t *testing.T) {
	// 8 points cannot cover two default weekly periods
	history := makeHistory("traffic", []float64{1, 2, 3, 4, 5, 6, 7, 8})

	_, _, err := seasonalModel{}.FitForecast(history, 7)
	require.Error(t, err)
	assert.True(t, errors.IsModelFailure(err))
}

func TestSeasonalDecompose(t *testing.T) {
	values := sineSeries(42, 7, 100, 10)

	decomp, ok := seasonalDecompose(values, 7)
	require.True(t, ok)
	require.Len(t, decomp.seasonal, 7)

	// Seasonal offsets are centered around zero
	assert.InDelta(t, 0, mean(decomp.seasonal), 1e-9)

	// Trend of a pure oscillation around 100 stays near 100
	for _, tv := range decomp.trend {
		assert.InDelta(t, 100, tv, 5)
	}

	_, ok = seasonalDecompose(values[:10], 7)
	assert.False(t, ok)
}

func TestArimaModel_Basics(t *testing.T) {
	history := makeHistory("orders", linearSeries(30, 50, 1))

	points, accuracy, err := arimaModel{}.FitForecast(history, 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	assertForecastInvariants(t, points)
	assert.GreaterOrEqual(t, accuracy, 0.0)
	assert.LessOrEqual(t, accuracy, 1.0)

	// A steadily increasing series keeps increasing near-term
	assert.Greater(t, points[0].PredictedValue, 79.0)
}

func TestArimaModel_FlooredAtZero(t *testing.T) {
	history := makeHistory("inventory", linearSeries(20, 10, -2))

	points, _, err := arimaModel{}.FitForecast(history, 10)
	require.NoError(t, err)
	assertForecastInvariants(t, points)
}
