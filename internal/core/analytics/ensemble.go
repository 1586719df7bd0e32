package analytics

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
	"github.com/frostdev-ops/pma-analytics-go/pkg/errors"
)

// EnsembleCombiner blends every configured model into one accuracy-weighted
// forecast per metric
type EnsembleCombiner struct {
	cfg    config.ForecastingConfig
	models []ForecastModel
	logger *logrus.Logger
}

// EnsembleResult carries the blended forecast plus per-model weights
type EnsembleResult struct {
	Forecast *Forecast          `json:"forecast"`
	Weights  map[string]float64 `json:"weights"`
}

// NewEnsembleCombiner resolves the configured model list
func NewEnsembleCombiner(cfg config.ForecastingConfig, logger *logrus.Logger) (*EnsembleCombiner, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.NewConfiguration("ensemble requires at least one model")
	}
	models, err := modelsByName(cfg.Models)
	if err != nil {
		return nil, err
	}
	return &EnsembleCombiner{cfg: cfg, models: models, logger: logger}, nil
}

type modelRun struct {
	name     string
	points   []ForecastPoint
	accuracy float64
}

// Combine fits the models independently (and concurrently; they share no
// state) and blends each horizon step across the models that predicted it.
func (ec *EnsembleCombiner) Combine(history MetricHistory) (*EnsembleResult, error) {
	obs := history.Sorted()
	if len(obs) < minForecastPoints {
		return nil, errors.NewInsufficientData(history.MetricName, len(obs), minForecastPoints)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		runs    []modelRun
		lastErr error
	)

	for _, model := range ec.models {
		wg.Add(1)
		go func(m ForecastModel) {
			defer wg.Done()
			points, accuracy, err := m.FitForecast(history, ec.cfg.Horizon)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				ec.logger.WithError(err).WithFields(logrus.Fields{
					"metric": history.MetricName,
					"model":  m.Name(),
				}).Warn("Ensemble member failed, excluding")
				lastErr = err
				return
			}
			runs = append(runs, modelRun{name: m.Name(), points: points, accuracy: accuracy})
		}(model)
	}
	wg.Wait()

	if len(runs) == 0 {
		return nil, lastErr
	}

	weights := ensembleWeights(runs)

	points := make([]ForecastPoint, 0, ec.cfg.Horizon)
	for s := 0; s < ec.cfg.Horizon; s++ {
		point, ok := blendStep(runs, weights, s)
		if !ok {
			break
		}
		points = append(points, point)
	}

	var blendedAccuracy float64
	for _, run := range runs {
		blendedAccuracy += weights[run.name] * run.accuracy
	}

	now := time.Now()
	validUntil := now
	if len(points) > 0 {
		validUntil = points[len(points)-1].Timestamp
	}

	return &EnsembleResult{
		Forecast: &Forecast{
			Metric:      history.MetricName,
			ModelName:   "ensemble",
			Points:      points,
			Accuracy:    blendedAccuracy,
			GeneratedAt: now,
			ValidUntil:  validUntil,
		},
		Weights: weights,
	}, nil
}

// ensembleWeights normalizes self-reported accuracies into weights that sum
// to one. Uniformly zero accuracy degrades to equal weights.
func ensembleWeights(runs []modelRun) map[string]float64 {
	total := 0.0
	for _, run := range runs {
		total += run.accuracy
	}

	weights := make(map[string]float64, len(runs))
	if total == 0 {
		for _, run := range runs {
			weights[run.name] = 1 / float64(len(runs))
		}
		return weights
	}
	for _, run := range runs {
		weights[run.name] = run.accuracy / total
	}
	return weights
}

// blendStep combines one horizon step across the models that produced a
// prediction for it. Models with shorter horizons are excluded from the
// blend at the steps they are missing.
func blendStep(runs []modelRun, weights map[string]float64, step int) (ForecastPoint, bool) {
	type contribution struct {
		point  ForecastPoint
		weight float64
	}

	var contribs []contribution
	var weightSum float64
	for _, run := range runs {
		if step >= len(run.points) {
			continue
		}
		w := weights[run.name]
		contribs = append(contribs, contribution{point: run.points[step], weight: w})
		weightSum += w
	}
	if len(contribs) == 0 || weightSum == 0 {
		return ForecastPoint{}, false
	}

	var value, confidence float64
	for _, c := range contribs {
		w := c.weight / weightSum
		value += w * c.point.PredictedValue
		confidence += w * c.point.Confidence
	}

	var varSum float64
	for _, c := range contribs {
		w := c.weight / weightSum
		diff := c.point.PredictedValue - value
		varSum += w * diff * diff
	}
	spread := 2 * math.Sqrt(varSum)

	return ForecastPoint{
		Timestamp:      contribs[0].point.Timestamp,
		PredictedValue: math.Max(0, value),
		Confidence:     clamp01(confidence),
		Interval: ForecastInterval{
			Lower: math.Max(0, value-spread),
			Upper: value + spread,
		},
	}, true
}
