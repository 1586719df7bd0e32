package analytics

import (
	"math"
	"sort"
	"time"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, m float64) float64 {
	return math.Sqrt(variance(values, m))
}

// olsFit performs ordinary least squares with the ordinal index as the
// independent variable. Returns slope, intercept and R². Zero denominators
// yield a zero slope or zero R² instead of NaN.
func olsFit(values []float64) (slope, intercept, rSquared float64) {
	n := float64(len(values))
	if n < 2 {
		return 0, mean(values), 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, y := range values {
		predicted := intercept + slope*float64(i)
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, intercept, 0
	}
	rSquared = 1 - ssRes/ssTot
	if math.IsNaN(rSquared) || math.IsInf(rSquared, 0) {
		rSquared = 0
	}
	return slope, intercept, clamp01(rSquared)
}

// autocorrelation computes the Pearson-style autocorrelation of a series
// against itself shifted by lag
func autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || lag >= n {
		return 0
	}

	m := mean(values)
	var num, denom float64
	for i := 0; i < n; i++ {
		denom += (values[i] - m) * (values[i] - m)
	}
	if denom == 0 {
		return 0
	}
	for i := lag; i < n; i++ {
		num += (values[i] - m) * (values[i-lag] - m)
	}

	r := num / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// meanAbsolutePercentageError computes MAPE over aligned slices, skipping
// zero actuals to avoid division by zero
func meanAbsolutePercentageError(actual, predicted []float64) float64 {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) * 100
}

// rootMeanSquareError computes RMSE over aligned slices
func rootMeanSquareError(actual, predicted []float64) float64 {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(n))
}

// observationStep returns the median gap between consecutive observations,
// used to place forecast points on the time axis. Falls back to 24h when the
// history has fewer than two distinct gaps.
func observationStep(obs []MetricObservation) time.Duration {
	if len(obs) < 2 {
		return 24 * time.Hour
	}

	gaps := make([]time.Duration, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		if gap := obs[i].Timestamp.Sub(obs[i-1].Timestamp); gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return 24 * time.Hour
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
