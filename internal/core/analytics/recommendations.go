package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
)

// RecommendationGenerator turns trends, anomalies and forecasts into
// prioritized action items. Pure function of its inputs.
type RecommendationGenerator struct {
	cfg    config.RecommendationsConfig
	logger *logrus.Logger
}

// NewRecommendationGenerator creates a generator with the given limits
func NewRecommendationGenerator(cfg config.RecommendationsConfig, logger *logrus.Logger) *RecommendationGenerator {
	return &RecommendationGenerator{cfg: cfg, logger: logger}
}

// Generate derives recommendations, filters them by the configured minimum
// confidence, sorts by (priority desc, confidence desc) and truncates to the
// configured maximum
func (rg *RecommendationGenerator) Generate(trends []TrendAnalysis, anomalies []AnomalyRecord, forecasts []*Forecast) []Recommendation {
	now := time.Now()
	recs := []Recommendation{}

	for _, trend := range trends {
		if rec := rg.fromTrend(trend, now); rec != nil {
			recs = append(recs, *rec)
		}
	}
	if rec := rg.fromAnomalies(anomalies, now); rec != nil {
		recs = append(recs, *rec)
	}
	for _, forecast := range forecasts {
		if rec := rg.fromForecast(forecast, now); rec != nil {
			recs = append(recs, *rec)
		}
	}

	filtered := recs[:0]
	for _, rec := range recs {
		if rec.Confidence >= rg.cfg.MinConfidence {
			filtered = append(filtered, rec)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ri, rj := priorityRank(filtered[i].Priority), priorityRank(filtered[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return filtered[i].Confidence > filtered[j].Confidence
	})

	if rg.cfg.MaxRecommendations > 0 && len(filtered) > rg.cfg.MaxRecommendations {
		filtered = filtered[:rg.cfg.MaxRecommendations]
	}

	return filtered
}

func (rg *RecommendationGenerator) fromTrend(trend TrendAnalysis, now time.Time) *Recommendation {
	if trend.Strength <= 0.7 {
		return nil
	}

	switch {
	case trend.Slope < -0.5:
		return &Recommendation{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Address declining trend in %s", trend.Metric),
			Description: fmt.Sprintf("%s has been falling consistently (slope %.2f, fit %.0f%%). Investigate the root cause before the decline compounds.", trend.Metric, trend.Slope, trend.RSquared*100),
			Priority:    PriorityHigh,
			Category:    CategoryRiskMitigation,
			Confidence:  trend.Strength,
			Impact:      ImpactHigh,
			Effort:      ImpactMedium,
			SuggestedActions: []string{
				fmt.Sprintf("Review recent changes affecting %s", trend.Metric),
				"Identify and remediate the primary decline driver",
				"Set a recovery target and monitor weekly",
			},
			RelatedMetrics: []string{trend.Metric},
			Timeframe:      "1-2 weeks",
			CreatedAt:      now,
		}
	case trend.Slope > 0.5:
		return &Recommendation{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Capitalize on growth in %s", trend.Metric),
			Description: fmt.Sprintf("%s is growing steadily (slope %.2f, fit %.0f%%). Consider reinforcing whatever is driving it.", trend.Metric, trend.Slope, trend.RSquared*100),
			Priority:    PriorityMedium,
			Category:    CategoryOpportunity,
			Confidence:  trend.Strength,
			Impact:      ImpactMedium,
			Effort:      ImpactLow,
			SuggestedActions: []string{
				fmt.Sprintf("Identify the growth drivers behind %s", trend.Metric),
				"Allocate additional resources to sustain momentum",
			},
			RelatedMetrics: []string{trend.Metric},
			Timeframe:      "2-4 weeks",
			CreatedAt:      now,
		}
	}
	return nil
}

// fromAnomalies aggregates critical and high anomalies into a single
// critical recommendation
func (rg *RecommendationGenerator) fromAnomalies(anomalies []AnomalyRecord, now time.Time) *Recommendation {
	var severe []AnomalyRecord
	for _, a := range anomalies {
		if a.Severity == SeverityCritical || a.Severity == SeverityHigh {
			severe = append(severe, a)
		}
	}
	if len(severe) == 0 {
		return nil
	}

	metricSet := map[string]struct{}{}
	confSum := 0.0
	for _, a := range severe {
		metricSet[a.Metric] = struct{}{}
		confSum += a.Confidence
	}
	metrics := make([]string, 0, len(metricSet))
	for m := range metricSet {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	return &Recommendation{
		ID:          uuid.NewString(),
		Title:       "Investigate severe metric anomalies",
		Description: fmt.Sprintf("%d high-severity anomalies detected across %d metric(s). These deviations exceed normal variation and need investigation.", len(severe), len(metrics)),
		Priority:    PriorityCritical,
		Category:    CategoryRiskMitigation,
		Confidence:  confSum / float64(len(severe)),
		Impact:      ImpactHigh,
		Effort:      ImpactMedium,
		SuggestedActions: []string{
			"Review the flagged observations against known events",
			"Verify data collection integrity for affected metrics",
			"Escalate confirmed incidents to the owning team",
		},
		RelatedMetrics: metrics,
		Timeframe:      "immediate",
		CreatedAt:      now,
	}
}

// fromForecast produces a recommendation when the near-term forecast moves
// more than 10% with mean confidence above 0.7
func (rg *RecommendationGenerator) fromForecast(forecast *Forecast, now time.Time) *Recommendation {
	if forecast == nil || len(forecast.Points) < 3 {
		return nil
	}

	window := forecast.Points[:3]
	confSum := 0.0
	for _, p := range window {
		confSum += p.Confidence
	}
	meanConf := confSum / 3
	if meanConf <= 0.7 {
		return nil
	}

	first, last := window[0].PredictedValue, window[2].PredictedValue
	if first == 0 {
		return nil
	}
	pctChange := (last - first) / first * 100
	if math.Abs(pctChange) <= 10 {
		return nil
	}

	priority := PriorityMedium
	if math.Abs(pctChange) > 20 {
		priority = PriorityHigh
	}

	if pctChange > 0 {
		return &Recommendation{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Prepare for forecasted growth in %s", forecast.Metric),
			Description: fmt.Sprintf("The %s model projects %s rising %.1f%% in the near term.", forecast.ModelName, forecast.Metric, pctChange),
			Priority:    priority,
			Category:    CategoryOpportunity,
			Confidence:  meanConf,
			Impact:      ImpactMedium,
			Effort:      ImpactLow,
			SuggestedActions: []string{
				fmt.Sprintf("Ensure capacity for increased %s volume", forecast.Metric),
				"Align staffing and budget with the projected growth",
			},
			RelatedMetrics: []string{forecast.Metric},
			Timeframe:      "1-2 weeks",
			CreatedAt:      now,
		}
	}

	return &Recommendation{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("Mitigate forecasted decline in %s", forecast.Metric),
		Description: fmt.Sprintf("The %s model projects %s dropping %.1f%% in the near term.", forecast.ModelName, forecast.Metric, math.Abs(pctChange)),
		Priority:    priority,
		Category:    CategoryRiskMitigation,
		Confidence:  meanConf,
		Impact:      ImpactHigh,
		Effort:      ImpactMedium,
		SuggestedActions: []string{
			fmt.Sprintf("Investigate the drivers behind the projected %s decline", forecast.Metric),
			"Prepare contingency measures before the drop materializes",
		},
		RelatedMetrics: []string{forecast.Metric},
		Timeframe:      "1-2 weeks",
		CreatedAt:      now,
	}
}
