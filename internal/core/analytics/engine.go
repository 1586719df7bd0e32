package analytics

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
	"github.com/frostdev-ops/pma-analytics-go/pkg/errors"
)

// ForecastEngine runs the configured models for a metric and keeps the one
// with the highest self-reported accuracy
type ForecastEngine struct {
	cfg    config.ForecastingConfig
	models []ForecastModel
	logger *logrus.Logger
}

// NewForecastEngine resolves the configured model list. Unknown model names
// are a configuration error.
func NewForecastEngine(cfg config.ForecastingConfig, logger *logrus.Logger) (*ForecastEngine, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.NewConfiguration("forecasting requires at least one model")
	}
	models, err := modelsByName(cfg.Models)
	if err != nil {
		return nil, err
	}
	return &ForecastEngine{cfg: cfg, models: models, logger: logger}, nil
}

// Forecast fits every configured model and returns the best one's horizon,
// with MAPE/RMSE recomputed against recent history. A single model failure
// is logged and skipped; the call fails only when every model fails.
func (fe *ForecastEngine) Forecast(history MetricHistory) (*Forecast, error) {
	obs := history.Sorted()
	if len(obs) < minForecastPoints {
		return nil, errors.NewInsufficientData(history.MetricName, len(obs), minForecastPoints)
	}

	var (
		bestPoints   []ForecastPoint
		bestAccuracy float64
		bestName     string
		lastErr      error
	)

	for _, model := range fe.models {
		points, accuracy, err := model.FitForecast(history, fe.cfg.Horizon)
		if err != nil {
			fe.logger.WithError(err).WithFields(logrus.Fields{
				"metric": history.MetricName,
				"model":  model.Name(),
			}).Warn("Forecast model failed, skipping")
			lastErr = err
			continue
		}
		if bestName == "" || accuracy > bestAccuracy {
			bestPoints = points
			bestAccuracy = accuracy
			bestName = model.Name()
		}
	}

	if bestName == "" {
		return nil, lastErr
	}

	mape, rmse := fe.scoreAgainstRecent(obs, bestPoints)

	now := time.Now()
	validUntil := now
	if len(bestPoints) > 0 {
		validUntil = bestPoints[len(bestPoints)-1].Timestamp
	}

	fe.logger.WithFields(logrus.Fields{
		"metric":   history.MetricName,
		"model":    bestName,
		"accuracy": bestAccuracy,
		"mape":     mape,
		"rmse":     rmse,
	}).Debug("Generated forecast")

	return &Forecast{
		Metric:      history.MetricName,
		ModelName:   bestName,
		Points:      bestPoints,
		Accuracy:    bestAccuracy,
		MAPE:        mape,
		RMSE:        rmse,
		GeneratedAt: now,
		ValidUntil:  validUntil,
	}, nil
}

// scoreAgainstRecent compares the leading predictions against the most
// recent actual observations, aligning the prediction window with the tail
// of the history
func (fe *ForecastEngine) scoreAgainstRecent(obs []MetricObservation, points []ForecastPoint) (mape, rmse float64) {
	k := len(obs)
	if k > 10 {
		k = 10
	}
	if k > len(points) {
		k = len(points)
	}
	if k == 0 {
		return 0, 0
	}

	actual := make([]float64, k)
	predicted := make([]float64, k)
	for i := 0; i < k; i++ {
		actual[i] = obs[len(obs)-k+i].Value
		predicted[i] = points[i].PredictedValue
	}

	return meanAbsolutePercentageError(actual, predicted), rootMeanSquareError(actual, predicted)
}
