package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/frostdev-ops/pma-analytics-go/pkg/errors"
)

// minForecastPoints is the smallest history any forecast model will fit
const minForecastPoints = 5

// ForecastModel is one point-forecast strategy. Implementations fit the
// history and return a horizon of predictions plus a self-reported accuracy
// in [0,1] used for model selection and ensemble weighting.
type ForecastModel interface {
	Name() string
	FitForecast(history MetricHistory, horizon int) ([]ForecastPoint, float64, error)
}

// ModelByName resolves a configured model name to its implementation
func ModelByName(name string) (ForecastModel, error) {
	switch name {
	case "linear":
		return linearModel{}, nil
	case "exponential":
		return exponentialModel{}, nil
	case "seasonal":
		return seasonalModel{}, nil
	case "arima":
		return arimaModel{}, nil
	default:
		return nil, errors.NewConfiguration(fmt.Sprintf("unknown forecast model %q", name))
	}
}

func modelsByName(names []string) ([]ForecastModel, error) {
	models := make([]ForecastModel, 0, len(names))
	for _, name := range names {
		model, err := ModelByName(name)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// forecastBasis validates and prepares a history for fitting
func forecastBasis(history MetricHistory) ([]MetricObservation, []float64, time.Duration, error) {
	obs := history.Sorted()
	if len(obs) < minForecastPoints {
		return nil, nil, 0, errors.NewInsufficientData(history.MetricName, len(obs), minForecastPoints)
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	return obs, values, observationStep(obs), nil
}

// linearModel extrapolates the OLS regression line
type linearModel struct{}

func (linearModel) Name() string { return "linear" }

func (linearModel) FitForecast(history MetricHistory, horizon int) ([]ForecastPoint, float64, error) {
	obs, values, step, err := forecastBasis(history)
	if err != nil {
		return nil, 0, err
	}

	slope, intercept, rSquared := olsFit(values)

	// Residual spread drives the interval width
	residuals := make([]float64, len(values))
	for i, v := range values {
		residuals[i] = v - (intercept + slope*float64(i))
	}
	residStd := stdDev(residuals, mean(residuals))

	last := values[len(values)-1]
	lastTS := obs[len(obs)-1].Timestamp

	points := make([]ForecastPoint, 0, horizon)
	for s := 1; s <= horizon; s++ {
		predicted := math.Max(0, last+slope*float64(s))
		confidence := math.Max(0.3, 0.95-0.05*float64(s))
		width := (1 - confidence) * 4 * residStd
		points = append(points, ForecastPoint{
			Timestamp:      lastTS.Add(time.Duration(s) * step),
			PredictedValue: predicted,
			Confidence:     confidence,
			Interval: ForecastInterval{
				Lower: math.Max(0, predicted-width),
				Upper: predicted + width,
			},
		})
	}

	return points, rSquared, nil
}

// exponentialModel applies simple exponential smoothing with a compound
// growth rate estimated from the tail of the series
type exponentialModel struct{}

const smoothingAlpha = 0.3

func (exponentialModel) Name() string { return "exponential" }

func (exponentialModel) FitForecast(history MetricHistory, horizon int) ([]ForecastPoint, float64, error) {
	obs, values, step, err := forecastBasis(history)
	if err != nil {
		return nil, 0, err
	}

	// Smooth the level, keeping one-step-ahead predictions for accuracy
	level := values[0]
	oneStep := make([]float64, 0, len(values)-1)
	for _, v := range values[1:] {
		oneStep = append(oneStep, level)
		level = smoothingAlpha*v + (1-smoothingAlpha)*level
	}

	growth := tailGrowthRate(values)

	mape := meanAbsolutePercentageError(values[1:], oneStep)
	accuracy := clamp01(1 - mape/100)

	sd := stdDev(values, mean(values))
	lastTS := obs[len(obs)-1].Timestamp

	points := make([]ForecastPoint, 0, horizon)
	for s := 1; s <= horizon; s++ {
		predicted := math.Max(0, level*math.Pow(growth, float64(s)))
		confidence := math.Max(0.2, 0.8*math.Exp(-0.1*float64(s)))
		width := (1 - confidence) * 2 * sd
		points = append(points, ForecastPoint{
			Timestamp:      lastTS.Add(time.Duration(s) * step),
			PredictedValue: predicted,
			Confidence:     confidence,
			Interval: ForecastInterval{
				Lower: math.Max(0, predicted-width),
				Upper: predicted + width,
			},
		})
	}

	return points, accuracy, nil
}

// tailGrowthRate estimates the compound per-step growth from the ratios of
// the last five values, clamped to keep runaway extrapolation in check
func tailGrowthRate(values []float64) float64 {
	start := len(values) - 5
	if start < 1 {
		start = 1
	}

	var sum float64
	var count int
	for i := start; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		sum += values[i] / values[i-1]
		count++
	}
	if count == 0 {
		return 1
	}

	growth := sum / float64(count)
	return math.Max(0.5, math.Min(2, growth))
}

// seasonalModel decomposes the series into trend, seasonal and residual
// components and extrapolates trend plus seasonal phase
type seasonalModel struct{}

func (seasonalModel) Name() string { return "seasonal" }

func (seasonalModel) FitForecast(history MetricHistory, horizon int) ([]ForecastPoint, float64, error) {
	obs, values, step, err := forecastBasis(history)
	if err != nil {
		return nil, 0, err
	}

	period, _, _ := detectSeasonalPeriod(values)
	decomp, ok := seasonalDecompose(values, period)
	if !ok {
		return nil, 0, errors.NewModelFailure("seasonal", history.MetricName,
			fmt.Errorf("history of %d points is shorter than two %d-point periods", len(values), period))
	}

	// Extrapolate the trend component linearly from its defined region
	trendSlope, _, _ := olsFit(decomp.trend)
	lastTrend := decomp.trend[len(decomp.trend)-1]
	trendOffset := len(values) - 1 - decomp.lastTrendIndex

	residVar := variance(decomp.residual, mean(decomp.residual))
	residStd := math.Sqrt(residVar)

	totalVar := variance(values, mean(values))
	var accuracy float64
	if totalVar == 0 {
		if residVar == 0 {
			accuracy = 1
		}
	} else {
		accuracy = clamp01(1 - residVar/totalVar)
	}

	n := len(values)
	lastTS := obs[len(obs)-1].Timestamp

	points := make([]ForecastPoint, 0, horizon)
	for s := 1; s <= horizon; s++ {
		phase := (n - 1 + s) % period
		predicted := math.Max(0, lastTrend+trendSlope*float64(trendOffset+s)+decomp.seasonal[phase])
		confidence := math.Max(0.2, accuracy*(1-0.04*float64(s)))
		width := 2 * residStd * (1 + 0.05*float64(s))
		points = append(points, ForecastPoint{
			Timestamp:      lastTS.Add(time.Duration(s) * step),
			PredictedValue: predicted,
			Confidence:     confidence,
			Interval: ForecastInterval{
				Lower: math.Max(0, predicted-width),
				Upper: predicted + width,
			},
		})
	}

	return points, accuracy, nil
}

// detectSeasonalPeriod searches candidate lags 2..min(n/3,12) for the highest
// autocorrelation. Falls back to a weekly period of 7 when no lag dominates.
func detectSeasonalPeriod(values []float64) (period int, strength float64, detected bool) {
	maxLag := len(values) / 3
	if maxLag > 12 {
		maxLag = 12
	}

	var best float64
	var bestLag int
	for lag := 2; lag <= maxLag; lag++ {
		if r := autocorrelation(values, lag); r > best {
			best = r
			bestLag = lag
		}
	}

	if bestLag == 0 || best < 0.3 {
		return 7, clamp01(best), false
	}
	return bestLag, clamp01(best), true
}

type decomposition struct {
	trend          []float64 // defined region only
	seasonal       []float64 // one mean detrended residual per phase
	residual       []float64 // defined region only
	lastTrendIndex int       // index into the original series of the last trend value
}

// seasonalDecompose splits the series into a centered-moving-average trend,
// per-phase seasonal offsets and residuals. Requires two full periods.
func seasonalDecompose(values []float64, period int) (*decomposition, bool) {
	n := len(values)
	if period < 2 || n < 2*period {
		return nil, false
	}

	half := period / 2
	first, last := half, n-1-half
	if first > last {
		return nil, false
	}

	trend := make([]float64, 0, last-first+1)
	for i := first; i <= last; i++ {
		window := values[i-half : i+half+1]
		trend = append(trend, mean(window))
	}

	sums := make([]float64, period)
	counts := make([]int, period)
	for i := first; i <= last; i++ {
		phase := i % period
		sums[phase] += values[i] - trend[i-first]
		counts[phase]++
	}

	seasonal := make([]float64, period)
	for p := 0; p < period; p++ {
		if counts[p] > 0 {
			seasonal[p] = sums[p] / float64(counts[p])
		}
	}
	// Center so the seasonal component sums to ~0 over one period
	offset := mean(seasonal)
	for p := range seasonal {
		seasonal[p] -= offset
	}

	residual := make([]float64, 0, last-first+1)
	for i := first; i <= last; i++ {
		residual = append(residual, values[i]-trend[i-first]-seasonal[i%period])
	}

	return &decomposition{
		trend:          trend,
		seasonal:       seasonal,
		residual:       residual,
		lastTrendIndex: last,
	}, true
}

// arimaModel fits a first-order autoregressive model with a constant moving
// average term on the first-differenced series. Intentionally a heuristic
// approximation, not a Box-Jenkins fit.
type arimaModel struct{}

const arimaMATheta = 0.3

func (arimaModel) Name() string { return "arima" }

func (arimaModel) FitForecast(history MetricHistory, horizon int) ([]ForecastPoint, float64, error) {
	obs, values, step, err := forecastBasis(history)
	if err != nil {
		return nil, 0, err
	}

	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}

	ar := autocorrelation(diffs, 1)
	ar = math.Max(-0.9, math.Min(0.9, ar))

	// In-sample one-step errors for the MA term and accuracy
	errs := make([]float64, len(diffs))
	for i := 1; i < len(diffs); i++ {
		predicted := ar*diffs[i-1] + arimaMATheta*errs[i-1]
		errs[i] = diffs[i] - predicted
	}

	diffVar := variance(diffs, mean(diffs))
	errVar := variance(errs, mean(errs))
	var accuracy float64
	if diffVar == 0 {
		if errVar == 0 {
			accuracy = 1
		}
	} else {
		accuracy = clamp01(1 - errVar/diffVar)
	}
	errStd := math.Sqrt(errVar)

	lastValue := values[len(values)-1]
	lastDiff := diffs[len(diffs)-1]
	lastErr := errs[len(errs)-1]
	lastTS := obs[len(obs)-1].Timestamp

	points := make([]ForecastPoint, 0, horizon)
	for s := 1; s <= horizon; s++ {
		nextDiff := ar*lastDiff + arimaMATheta*lastErr
		predicted := math.Max(0, lastValue+nextDiff)
		confidence := math.Max(0.2, 0.75*math.Exp(-0.08*float64(s-1)))
		width := 2 * errStd * math.Sqrt(float64(s))
		points = append(points, ForecastPoint{
			Timestamp:      lastTS.Add(time.Duration(s) * step),
			PredictedValue: predicted,
			Confidence:     confidence,
			Interval: ForecastInterval{
				Lower: math.Max(0, predicted-width),
				Upper: predicted + width,
			},
		})

		lastValue = predicted
		lastDiff = nextDiff
		lastErr = 0 // future shocks are unknown
	}

	return points, accuracy, nil
}
