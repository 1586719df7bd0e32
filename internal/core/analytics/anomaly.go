package analytics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
)

// AnomalyDetector scores observations against a rolling-window baseline.
// Thin histories produce an empty result rather than an error: the absence
// of anomalies is a valid answer.
type AnomalyDetector struct {
	cfg       config.AnomalyDetectionConfig
	threshold float64
	logger    *logrus.Logger
}

// NewAnomalyDetector creates a detector with a sensitivity-derived z-score threshold
func NewAnomalyDetector(cfg config.AnomalyDetectionConfig, logger *logrus.Logger) *AnomalyDetector {
	return &AnomalyDetector{
		cfg:       cfg,
		threshold: sensitivityThreshold(cfg.Sensitivity),
		logger:    logger,
	}
}

func sensitivityThreshold(sensitivity string) float64 {
	switch sensitivity {
	case "low":
		return 2.0
	case "high":
		return 1.0
	default: // medium
		return 1.5
	}
}

// Detect scans the history with a trailing window z-score and returns every
// exceedance. Never returns an error.
func (ad *AnomalyDetector) Detect(history MetricHistory) []AnomalyRecord {
	obs := history.Sorted()
	if len(obs) < ad.cfg.MinDataPoints {
		return []AnomalyRecord{}
	}

	window := len(obs) / 3
	if window > 7 {
		window = 7
	}
	if window < 2 {
		return []AnomalyRecord{}
	}

	anomalies := []AnomalyRecord{}
	for i := window; i < len(obs); i++ {
		windowValues := make([]float64, window)
		for j := 0; j < window; j++ {
			windowValues[j] = obs[i-window+j].Value
		}
		windowMean := mean(windowValues)
		windowStd := stdDev(windowValues, windowMean)

		value := obs[i].Value
		z := math.Abs(value-windowMean) / math.Max(windowStd, 1)
		if z <= ad.threshold {
			continue
		}

		anomalies = append(anomalies, AnomalyRecord{
			Metric:        history.MetricName,
			Timestamp:     obs[i].Timestamp,
			ObservedValue: value,
			ExpectedValue: windowMean,
			Deviation:     math.Abs(value - windowMean),
			Severity:      anomalySeverity(z),
			Confidence:    math.Min(z/3, 1),
			Kind:          anomalyKind(value, windowMean, windowStd),
			Description:   fmt.Sprintf("Value %.2f is %.2f standard deviations from rolling mean %.2f", value, z, windowMean),
		})
	}

	if len(anomalies) > 0 {
		ad.logger.WithFields(logrus.Fields{
			"metric": history.MetricName,
			"count":  len(anomalies),
		}).Debug("Detected anomalies")
	}

	return anomalies
}

func anomalySeverity(z float64) AnomalySeverity {
	switch {
	case z > 3:
		return SeverityCritical
	case z > 2.5:
		return SeverityHigh
	case z > 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func anomalyKind(value, windowMean, windowStd float64) AnomalyKind {
	switch {
	case value > windowMean+2*windowStd:
		return AnomalySpike
	case value < windowMean-2*windowStd:
		return AnomalyDrop
	default:
		return AnomalyOutlier
	}
}
