package analytics

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/pkg/errors"
)

// TrendAnalyzer classifies metric trends using ordinary least squares over
// the observation index. Stateless and safe for concurrent use.
type TrendAnalyzer struct {
	logger *logrus.Logger
}

// NewTrendAnalyzer creates a new trend analyzer
func NewTrendAnalyzer(logger *logrus.Logger) *TrendAnalyzer {
	return &TrendAnalyzer{logger: logger}
}

// Analyze regresses the history and classifies its trend. At least two
// observations are required to define a slope.
func (ta *TrendAnalyzer) Analyze(history MetricHistory) (*TrendAnalysis, error) {
	obs := history.Sorted()
	if len(obs) < 2 {
		return nil, errors.NewInsufficientData(history.MetricName, len(obs), 2)
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}

	slope, _, rSquared := olsFit(values)

	var direction TrendDirection
	switch {
	case math.Abs(slope) < 0.1:
		direction = TrendStable
	case rSquared < 0.3:
		direction = TrendVolatile
	case slope > 0:
		direction = TrendIncreasing
	default:
		direction = TrendDecreasing
	}

	ta.logger.WithFields(logrus.Fields{
		"metric":    history.MetricName,
		"direction": direction,
		"slope":     slope,
		"r_squared": rSquared,
	}).Debug("Analyzed metric trend")

	return &TrendAnalysis{
		Metric:      history.MetricName,
		Direction:   direction,
		Strength:    math.Min(rSquared, 1),
		Slope:       slope,
		RSquared:    rSquared,
		Period:      history.AggregationPeriod,
		SampleCount: len(obs),
		StartDate:   obs[0].Timestamp,
		EndDate:     obs[len(obs)-1].Timestamp,
	}, nil
}
