package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
)

// System orchestrates the analyzers into higher-level reports. All state is
// immutable configuration; every method is safe for concurrent use.
type System struct {
	cfg         config.AnalyticsConfig
	trend       *TrendAnalyzer
	anomaly     *AnomalyDetector
	engine      *ForecastEngine
	ensemble    *EnsembleCombiner
	recommender *RecommendationGenerator
	metrics     *Metrics
	logger      *logrus.Logger
}

// Option customizes a System at construction
type Option func(*System)

// WithMetrics attaches prometheus instrumentation
func WithMetrics(m *Metrics) Option {
	return func(s *System) { s.metrics = m }
}

// NewSystem builds the full analytics pipeline from one immutable config
func NewSystem(cfg config.AnalyticsConfig, logger *logrus.Logger, opts ...Option) (*System, error) {
	engine, err := NewForecastEngine(cfg.Forecasting, logger)
	if err != nil {
		return nil, err
	}
	ensemble, err := NewEnsembleCombiner(cfg.Forecasting, logger)
	if err != nil {
		return nil, err
	}

	s := &System{
		cfg:         cfg,
		trend:       NewTrendAnalyzer(logger),
		anomaly:     NewAnomalyDetector(cfg.AnomalyDetection, logger),
		engine:      engine,
		ensemble:    ensemble,
		recommender: NewRecommendationGenerator(cfg.Recommendations, logger),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AnalyzeTrend analyzes a single metric, surfacing insufficient data directly
func (s *System) AnalyzeTrend(history MetricHistory) (*TrendAnalysis, error) {
	return s.trend.Analyze(history)
}

// GenerateForecast forecasts a single metric, surfacing insufficient data directly
func (s *System) GenerateForecast(history MetricHistory) (*Forecast, error) {
	forecast, err := s.engine.Forecast(history)
	if err == nil {
		s.metrics.addForecast()
	}
	return forecast, err
}

// DetectAnomalies scans a single metric history
func (s *System) DetectAnomalies(history MetricHistory) []AnomalyRecord {
	anomalies := s.anomaly.Detect(history)
	s.metrics.addAnomalies(len(anomalies))
	return anomalies
}

// AnalyzeTrendsWithInsights runs the trend analyzer across all metrics,
// derives insight strings for strong trends and assesses aggregate risk.
// Metrics with too little data are skipped with a warning; the batch never
// fails because of one metric.
func (s *System) AnalyzeTrendsWithInsights(ctx context.Context, histories []MetricHistory) (*TrendReport, error) {
	start := time.Now()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	trends := []TrendAnalysis{}
	for _, history := range histories {
		wg.Add(1)
		go func(h MetricHistory) {
			defer wg.Done()
			trend, err := s.trend.Analyze(h)
			if err != nil {
				s.logger.WithError(err).WithField("metric", h.MetricName).Warn("Skipping metric in trend batch")
				return
			}
			mu.Lock()
			trends = append(trends, *trend)
			mu.Unlock()
		}(history)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.metrics.observeStage("trends", start, err)
		return nil, err
	}

	sortTrends(trends)

	report := &TrendReport{
		Trends:      trends,
		Insights:    trendInsights(trends),
		RiskLevel:   assessTrendRisk(trends),
		GeneratedAt: time.Now(),
	}
	s.metrics.observeStage("trends", start, nil)
	return report, nil
}

// sortTrends restores a deterministic order after the concurrent fan-out
func sortTrends(trends []TrendAnalysis) {
	sort.Slice(trends, func(i, j int) bool { return trends[i].Metric < trends[j].Metric })
}

func trendInsights(trends []TrendAnalysis) []TrendInsight {
	insights := []TrendInsight{}
	for _, t := range trends {
		if t.Strength <= 0.7 {
			continue
		}
		switch t.Direction {
		case TrendIncreasing:
			insights = append(insights, TrendInsight{
				Metric:          t.Metric,
				Insight:         fmt.Sprintf("%s shows sustained growth (%.0f%% fit over %d samples)", t.Metric, t.RSquared*100, t.SampleCount),
				SuggestedAction: fmt.Sprintf("Reinforce the drivers behind %s", t.Metric),
			})
		case TrendDecreasing:
			insights = append(insights, TrendInsight{
				Metric:          t.Metric,
				Insight:         fmt.Sprintf("%s shows a sustained decline (%.0f%% fit over %d samples)", t.Metric, t.RSquared*100, t.SampleCount),
				SuggestedAction: fmt.Sprintf("Investigate what is depressing %s", t.Metric),
			})
		}
	}
	return insights
}

func assessTrendRisk(trends []TrendAnalysis) RiskLevel {
	var strongDecreasing, volatile int
	for _, t := range trends {
		if t.Direction == TrendDecreasing && t.Strength > 0.7 {
			strongDecreasing++
		}
		if t.Direction == TrendVolatile {
			volatile++
		}
	}

	switch {
	case strongDecreasing >= 2 || volatile >= 3:
		return RiskCritical
	case strongDecreasing >= 1 || volatile >= 2:
		return RiskHigh
	case volatile >= 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// DetectAnomaliesWithContext aggregates the anomaly detector across metrics,
// buckets findings and derives an alert level
func (s *System) DetectAnomaliesWithContext(ctx context.Context, histories []MetricHistory) (*AnomalyReport, error) {
	start := time.Now()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	all := []AnomalyRecord{}
	if s.cfg.AnomalyDetection.Enabled {
		for _, history := range histories {
			wg.Add(1)
			go func(h MetricHistory) {
				defer wg.Done()
				found := s.anomaly.Detect(h)
				if len(found) == 0 {
					return
				}
				mu.Lock()
				all = append(all, found...)
				mu.Unlock()
			}(history)
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		s.metrics.observeStage("anomalies", start, err)
		return nil, err
	}

	bySeverity := map[AnomalySeverity]int{}
	byKind := map[AnomalyKind]int{}
	confSum := 0.0
	for _, a := range all {
		bySeverity[a.Severity]++
		byKind[a.Kind]++
		confSum += a.Confidence
	}
	avgConfidence := 0.0
	if len(all) > 0 {
		avgConfidence = confSum / float64(len(all))
	}

	report := &AnomalyReport{
		Anomalies:         all,
		BySeverity:        bySeverity,
		ByKind:            byKind,
		AverageConfidence: avgConfidence,
		Recommendations:   anomalyAdvice(bySeverity, byKind, len(all)),
		AlertLevel:        assessAlertLevel(bySeverity, len(all)),
		GeneratedAt:       time.Now(),
	}

	s.metrics.addAnomalies(len(all))
	s.metrics.observeStage("anomalies", start, nil)
	return report, nil
}

func anomalyAdvice(bySeverity map[AnomalySeverity]int, byKind map[AnomalyKind]int, total int) []string {
	advice := []string{}
	if n := bySeverity[SeverityCritical]; n > 0 {
		advice = append(advice, fmt.Sprintf("Investigate %d critical anomaly(ies) immediately", n))
	}
	if n := bySeverity[SeverityHigh]; n > 0 {
		advice = append(advice, fmt.Sprintf("Review %d high-severity anomaly(ies) within the day", n))
	}
	if spikes := byKind[AnomalySpike]; spikes > 1 {
		advice = append(advice, fmt.Sprintf("Multiple spikes detected (%d); check for unexpected load or data duplication", spikes))
	}
	if drops := byKind[AnomalyDrop]; drops > 1 {
		advice = append(advice, fmt.Sprintf("Multiple drops detected (%d); verify collection pipelines are healthy", drops))
	}
	if total > 5 {
		advice = append(advice, "Anomaly volume is elevated; consider lowering detector sensitivity or reviewing recent changes")
	}
	return advice
}

func assessAlertLevel(bySeverity map[AnomalySeverity]int, total int) AlertLevel {
	switch {
	case bySeverity[SeverityCritical] > 0 || bySeverity[SeverityHigh] > 2:
		return AlertCritical
	case bySeverity[SeverityHigh] > 0 || total > 5:
		return AlertWarning
	default:
		return AlertNormal
	}
}

// GenerateAdvancedForecasts runs the engine and ensemble per metric, derives
// the aggregate market outlook and extracts per-metric seasonal insights
func (s *System) GenerateAdvancedForecasts(ctx context.Context, histories []MetricHistory) (*ForecastReport, error) {
	start := time.Now()

	report := &ForecastReport{
		Forecasts:        map[string]*Forecast{},
		Ensembles:        map[string]*Forecast{},
		MarketOutlook:    OutlookNeutral,
		SeasonalInsights: map[string]SeasonalInsight{},
	}

	if s.cfg.Forecasting.Enabled {
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, history := range histories {
			wg.Add(1)
			go func(h MetricHistory) {
				defer wg.Done()

				forecast, err := s.engine.Forecast(h)
				if err != nil {
					s.logger.WithError(err).WithField("metric", h.MetricName).Warn("Skipping metric in forecast batch")
					return
				}
				s.metrics.addForecast()

				var blended *Forecast
				if result, err := s.ensemble.Combine(h); err == nil {
					blended = result.Forecast
				} else {
					s.logger.WithError(err).WithField("metric", h.MetricName).Warn("Ensemble unavailable for metric")
				}

				insight := s.seasonalInsight(h)

				mu.Lock()
				report.Forecasts[h.MetricName] = forecast
				if blended != nil {
					report.Ensembles[h.MetricName] = blended
				}
				report.SeasonalInsights[h.MetricName] = insight
				mu.Unlock()
			}(history)
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		s.metrics.observeStage("forecasts", start, err)
		return nil, err
	}

	report.MarketOutlook = marketOutlook(report.Forecasts)
	report.GeneratedAt = time.Now()

	s.metrics.observeStage("forecasts", start, nil)
	return report, nil
}

// marketOutlook aggregates near-term forecasted % change across metrics,
// weighted by each forecast's accuracy
func marketOutlook(forecasts map[string]*Forecast) MarketOutlook {
	var weightedChange, weightSum float64
	for _, f := range forecasts {
		if len(f.Points) < 2 {
			continue
		}
		window := f.Points
		if len(window) > 3 {
			window = window[:3]
		}
		first := window[0].PredictedValue
		last := window[len(window)-1].PredictedValue
		if first == 0 {
			continue
		}
		pct := (last - first) / first * 100
		weight := math.Max(f.Accuracy, 0.01)
		weightedChange += pct * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return OutlookNeutral
	}

	change := weightedChange / weightSum
	switch {
	case change > 2:
		return OutlookPositive
	case change < -2:
		return OutlookNegative
	default:
		return OutlookNeutral
	}
}

// seasonalInsight detects seasonality for one metric and predicts the next
// peak and trough dates from the seasonal phase offsets
func (s *System) seasonalInsight(history MetricHistory) SeasonalInsight {
	obs := history.Sorted()
	insight := SeasonalInsight{Metric: history.MetricName}
	if len(obs) < minForecastPoints {
		return insight
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}

	period, strength, detected := detectSeasonalPeriod(values)
	insight.Period = period
	insight.Strength = strength
	insight.HasSeasonality = detected
	if !detected {
		return insight
	}

	decomp, ok := seasonalDecompose(values, period)
	if !ok {
		return insight
	}

	peakPhase, troughPhase := 0, 0
	for p := 1; p < period; p++ {
		if decomp.seasonal[p] > decomp.seasonal[peakPhase] {
			peakPhase = p
		}
		if decomp.seasonal[p] < decomp.seasonal[troughPhase] {
			troughPhase = p
		}
	}

	step := observationStep(obs)
	lastIndex := len(values) - 1
	lastTS := obs[lastIndex].Timestamp

	nextPeak := lastTS.Add(time.Duration(stepsToPhase(lastIndex, peakPhase, period)) * step)
	nextTrough := lastTS.Add(time.Duration(stepsToPhase(lastIndex, troughPhase, period)) * step)
	insight.NextPeak = &nextPeak
	insight.NextTrough = &nextTrough
	return insight
}

// stepsToPhase returns how many steps ahead of index the next occurrence of
// phase falls, always at least one
func stepsToPhase(index, phase, period int) int {
	steps := (phase - (index % period) + period) % period
	if steps == 0 {
		steps = period
	}
	return steps
}

// GenerateActionableRecommendations wraps the recommendation generator with
// priority actions, a business impact estimate and execution buckets
func (s *System) GenerateActionableRecommendations(ctx context.Context, histories []MetricHistory) (*RecommendationReport, error) {
	start := time.Now()

	report := &RecommendationReport{
		Recommendations: []Recommendation{},
		PriorityActions: []string{},
		Immediate:       []Recommendation{},
		ShortTerm:       []Recommendation{},
		LongTerm:        []Recommendation{},
	}

	if !s.cfg.Recommendations.Enabled {
		report.GeneratedAt = time.Now()
		s.metrics.observeStage("recommendations", start, nil)
		return report, nil
	}

	trendReport, err := s.AnalyzeTrendsWithInsights(ctx, histories)
	if err != nil {
		s.metrics.observeStage("recommendations", start, err)
		return nil, err
	}
	anomalyReport, err := s.DetectAnomaliesWithContext(ctx, histories)
	if err != nil {
		s.metrics.observeStage("recommendations", start, err)
		return nil, err
	}
	forecastReport, err := s.GenerateAdvancedForecasts(ctx, histories)
	if err != nil {
		s.metrics.observeStage("recommendations", start, err)
		return nil, err
	}

	forecasts := make([]*Forecast, 0, len(forecastReport.Forecasts))
	for _, f := range forecastReport.Forecasts {
		forecasts = append(forecasts, f)
	}

	recs := s.recommender.Generate(trendReport.Trends, anomalyReport.Anomalies, forecasts)
	report.Recommendations = recs

	for i, rec := range recs {
		if i >= 3 {
			break
		}
		report.PriorityActions = append(report.PriorityActions, rec.Title)
	}

	report.BusinessImpact = estimateBusinessImpact(recs)

	for _, rec := range recs {
		switch bucketFor(rec) {
		case "immediate":
			report.Immediate = append(report.Immediate, rec)
		case "short_term":
			report.ShortTerm = append(report.ShortTerm, rec)
		default:
			report.LongTerm = append(report.LongTerm, rec)
		}
	}

	report.GeneratedAt = time.Now()
	s.metrics.observeStage("recommendations", start, nil)
	return report, nil
}

// estimateBusinessImpact scores recommendations on three axes. Risk and
// opportunity are bounded to [0,100]; revenue is a signed net estimate.
func estimateBusinessImpact(recs []Recommendation) BusinessImpact {
	var risk, opportunity float64
	for _, rec := range recs {
		score := float64(priorityRank(rec.Priority)) * 10 * rec.Confidence
		switch rec.Category {
		case CategoryRiskMitigation:
			risk += score
		case CategoryOpportunity:
			opportunity += score
		case CategoryOptimization:
			opportunity += score / 2
		}
	}
	risk = math.Min(risk, 100)
	opportunity = math.Min(opportunity, 100)

	return BusinessImpact{
		Revenue:     opportunity*0.8 - risk*0.5,
		Risk:        risk,
		Opportunity: opportunity,
	}
}

func bucketFor(rec Recommendation) string {
	timeframe := strings.ToLower(rec.Timeframe)
	switch {
	case rec.Priority == PriorityCritical || strings.Contains(timeframe, "immediate"):
		return "immediate"
	case rec.Priority == PriorityHigh || strings.Contains(timeframe, "week"):
		return "short_term"
	default:
		return "long_term"
	}
}

// GenerateDashboardInsights composes every report into one dashboard
// payload. Degrades gracefully on empty input: zero metrics yield empty
// sections, a neutral outlook and low risk, never an error.
func (s *System) GenerateDashboardInsights(ctx context.Context, histories []MetricHistory) (*DashboardInsights, error) {
	start := time.Now()

	trends, err := s.AnalyzeTrendsWithInsights(ctx, histories)
	if err != nil {
		s.metrics.observeStage("dashboard", start, err)
		return nil, err
	}
	anomalies, err := s.DetectAnomaliesWithContext(ctx, histories)
	if err != nil {
		s.metrics.observeStage("dashboard", start, err)
		return nil, err
	}
	forecasts, err := s.GenerateAdvancedForecasts(ctx, histories)
	if err != nil {
		s.metrics.observeStage("dashboard", start, err)
		return nil, err
	}
	recommendations, err := s.GenerateActionableRecommendations(ctx, histories)
	if err != nil {
		s.metrics.observeStage("dashboard", start, err)
		return nil, err
	}

	insights := &DashboardInsights{
		Summary: DashboardSummary{
			TotalMetrics:    len(histories),
			TotalAnomalies:  len(anomalies.Anomalies),
			TotalForecasts:  len(forecasts.Forecasts),
			Recommendations: len(recommendations.Recommendations),
			GeneratedAt:     time.Now(),
		},
		Trends:          trends,
		Anomalies:       anomalies,
		Forecasts:       forecasts,
		Recommendations: recommendations,
	}

	s.metrics.observeStage("dashboard", start, nil)
	return insights, nil
}
