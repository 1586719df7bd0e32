package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the instrumentation counters for the analytics system
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec
	AnomaliesDetected prometheus.Counter
	ForecastsTotal    prometheus.Counter
	StageDuration     *prometheus.HistogramVec
}

// NewMetrics registers the analytics collectors on the given registry
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "analyses_total",
			Help:      "Number of analysis passes by stage and outcome.",
		}, []string{"stage", "outcome"}),
		AnomaliesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "anomalies_detected_total",
			Help:      "Number of anomalies detected across all metrics.",
		}),
		ForecastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "forecasts_total",
			Help:      "Number of forecasts generated.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each analysis stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.AnalysesTotal, m.AnomaliesDetected, m.ForecastsTotal, m.StageDuration)
	}
	return m
}

func (m *Metrics) observeStage(stage string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.AnalysesTotal.WithLabelValues(stage, outcome).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addAnomalies(n int) {
	if m == nil {
		return
	}
	m.AnomaliesDetected.Add(float64(n))
}

func (m *Metrics) addForecast() {
	if m == nil {
		return
	}
	m.ForecastsTotal.Inc()
}
