package analytics

import (
	"sort"
	"time"
)

// MetricObservation is a single observed value of a business metric.
// Immutable once produced by a collaborator.
type MetricObservation struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Value     float64   `json:"value" db:"value"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Category  string    `json:"category" db:"category"`
}

// MetricHistory is an ordered observation history for one metric
type MetricHistory struct {
	MetricName        string              `json:"metric_name"`
	Observations      []MetricObservation `json:"observations"`
	AggregationPeriod string              `json:"aggregation_period"`
}

// Sorted returns the observations ordered ascending by timestamp. Duplicate
// timestamps are kept in their original relative order.
func (h MetricHistory) Sorted() []MetricObservation {
	obs := make([]MetricObservation, len(h.Observations))
	copy(obs, h.Observations)
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Timestamp.Before(obs[j].Timestamp)
	})
	return obs
}

// Values returns the observation values in timestamp order
func (h MetricHistory) Values() []float64 {
	obs := h.Sorted()
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	return values
}

// TrendDirection classifies the direction of a metric trend
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
	TrendVolatile   TrendDirection = "volatile"
)

// TrendAnalysis is the result of regressing a metric history.
// Value object; never mutated after construction.
type TrendAnalysis struct {
	Metric      string         `json:"metric"`
	Direction   TrendDirection `json:"direction"`
	Strength    float64        `json:"strength"`
	Slope       float64        `json:"slope"`
	RSquared    float64        `json:"r_squared"`
	Period      string         `json:"period"`
	SampleCount int            `json:"sample_count"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
}

// AnomalySeverity grades how far an observation deviates from its baseline
type AnomalySeverity string

const (
	SeverityLow      AnomalySeverity = "low"
	SeverityMedium   AnomalySeverity = "medium"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// AnomalyKind classifies the shape of a detected anomaly
type AnomalyKind string

const (
	AnomalySpike        AnomalyKind = "spike"
	AnomalyDrop         AnomalyKind = "drop"
	AnomalyOutlier      AnomalyKind = "outlier"
	AnomalyPatternBreak AnomalyKind = "pattern_break"
)

// AnomalyRecord describes one detected anomaly
type AnomalyRecord struct {
	Metric        string          `json:"metric"`
	Timestamp     time.Time       `json:"timestamp"`
	ObservedValue float64         `json:"observed_value"`
	ExpectedValue float64         `json:"expected_value"`
	Deviation     float64         `json:"deviation"`
	Severity      AnomalySeverity `json:"severity"`
	Confidence    float64         `json:"confidence"`
	Kind          AnomalyKind     `json:"kind"`
	Description   string          `json:"description"`
}

// ForecastInterval bounds a predicted value
type ForecastInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastPoint is one predicted value on the forecast horizon
type ForecastPoint struct {
	Timestamp      time.Time        `json:"timestamp"`
	PredictedValue float64          `json:"predicted_value"`
	Confidence     float64          `json:"confidence"`
	Interval       ForecastInterval `json:"interval"`
}

// Forecast is a model's horizon of predictions for one metric
type Forecast struct {
	Metric      string          `json:"metric"`
	ModelName   string          `json:"model_name"`
	Points      []ForecastPoint `json:"points"`
	Accuracy    float64         `json:"accuracy"`
	MAPE        float64         `json:"mape"`
	RMSE        float64         `json:"rmse"`
	GeneratedAt time.Time       `json:"generated_at"`
	ValidUntil  time.Time       `json:"valid_until"`
}

// Priority orders recommendations and alerting
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// RecommendationCategory classifies why a recommendation was produced
type RecommendationCategory string

const (
	CategoryOpportunity    RecommendationCategory = "opportunity"
	CategoryRiskMitigation RecommendationCategory = "risk_mitigation"
	CategoryOptimization   RecommendationCategory = "optimization"
)

// ImpactLevel grades expected impact or effort
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// Recommendation is a prioritized action item derived from the analyses.
// Generated fresh each run; never persisted by this core.
type Recommendation struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Priority         Priority               `json:"priority"`
	Category         RecommendationCategory `json:"category"`
	Confidence       float64                `json:"confidence"`
	Impact           ImpactLevel            `json:"impact"`
	Effort           ImpactLevel            `json:"effort"`
	SuggestedActions []string               `json:"suggested_actions"`
	RelatedMetrics   []string               `json:"related_metrics"`
	Timeframe        string                 `json:"timeframe"`
	CreatedAt        time.Time              `json:"created_at"`
}

// RiskLevel summarizes trend risk across metrics
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// AlertLevel summarizes anomaly urgency across metrics
type AlertLevel string

const (
	AlertNormal   AlertLevel = "normal"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// MarketOutlook is the aggregate near-term forecast signal
type MarketOutlook string

const (
	OutlookPositive MarketOutlook = "positive"
	OutlookNeutral  MarketOutlook = "neutral"
	OutlookNegative MarketOutlook = "negative"
)

// TrendInsight is a natural-language reading of one strong trend
type TrendInsight struct {
	Metric          string `json:"metric"`
	Insight         string `json:"insight"`
	SuggestedAction string `json:"suggested_action"`
}

// TrendReport aggregates trend analyses with derived insights and risk
type TrendReport struct {
	Trends      []TrendAnalysis `json:"trends"`
	Insights    []TrendInsight  `json:"insights"`
	RiskLevel   RiskLevel       `json:"risk_level"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// AnomalyReport aggregates detected anomalies with context
type AnomalyReport struct {
	Anomalies         []AnomalyRecord         `json:"anomalies"`
	BySeverity        map[AnomalySeverity]int `json:"by_severity"`
	ByKind            map[AnomalyKind]int     `json:"by_kind"`
	AverageConfidence float64                 `json:"average_confidence"`
	Recommendations   []string                `json:"recommendations"`
	AlertLevel        AlertLevel              `json:"alert_level"`
	GeneratedAt       time.Time               `json:"generated_at"`
}

// SeasonalInsight describes detected seasonality for one metric
type SeasonalInsight struct {
	Metric         string     `json:"metric"`
	HasSeasonality bool       `json:"has_seasonality"`
	Period         int        `json:"period"`
	Strength       float64    `json:"strength"`
	NextPeak       *time.Time `json:"next_peak,omitempty"`
	NextTrough     *time.Time `json:"next_trough,omitempty"`
}

// ForecastReport aggregates per-metric forecasts with outlook and seasonality
type ForecastReport struct {
	Forecasts        map[string]*Forecast       `json:"forecasts"`
	Ensembles        map[string]*Forecast       `json:"ensembles"`
	MarketOutlook    MarketOutlook              `json:"market_outlook"`
	SeasonalInsights map[string]SeasonalInsight `json:"seasonal_insights"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// BusinessImpact estimates the aggregate effect of acting on recommendations
type BusinessImpact struct {
	Revenue     float64 `json:"revenue"`
	Risk        float64 `json:"risk"`
	Opportunity float64 `json:"opportunity"`
}

// RecommendationReport wraps generated recommendations with a business view
type RecommendationReport struct {
	Recommendations []Recommendation `json:"recommendations"`
	PriorityActions []string         `json:"priority_actions"`
	BusinessImpact  BusinessImpact   `json:"business_impact"`
	Immediate       []Recommendation `json:"immediate"`
	ShortTerm       []Recommendation `json:"short_term"`
	LongTerm        []Recommendation `json:"long_term"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// DashboardSummary carries top-level counts for the dashboard payload
type DashboardSummary struct {
	TotalMetrics    int       `json:"total_metrics"`
	TotalAnomalies  int       `json:"total_anomalies"`
	TotalForecasts  int       `json:"total_forecasts"`
	Recommendations int       `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// DashboardInsights is the consolidated payload for dashboards and alerting
type DashboardInsights struct {
	Summary         DashboardSummary      `json:"summary"`
	Trends          *TrendReport          `json:"trends"`
	Anomalies       *AnomalyReport        `json:"anomalies"`
	Forecasts       *ForecastReport       `json:"forecasts"`
	Recommendations *RecommendationReport `json:"recommendations"`
}
