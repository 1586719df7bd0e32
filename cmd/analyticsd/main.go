package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/pma-analytics-go/internal/config"
	"github.com/frostdev-ops/pma-analytics-go/internal/core/analytics"
	"github.com/frostdev-ops/pma-analytics-go/internal/core/analytics/historical"
	"github.com/frostdev-ops/pma-analytics-go/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	store, err := historical.NewStore(cfg.Database.Path, cfg.Database.MaxConnections, log)
	if err != nil {
		log.Fatal("Failed to open history store: ", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	system, err := analytics.NewSystem(cfg.Analytics, log,
		analytics.WithMetrics(analytics.NewMetrics(registry)))
	if err != nil {
		log.Fatal("Failed to build analytics system: ", err)
	}

	scheduler := analytics.NewScheduler(system, store, cfg.Analytics.Forecasting.UpdateFrequency,
		func(insights *analytics.DashboardInsights) {
			log.WithFields(logrus.Fields{
				"metrics":         insights.Summary.TotalMetrics,
				"anomalies":       insights.Summary.TotalAnomalies,
				"forecasts":       insights.Summary.TotalForecasts,
				"recommendations": insights.Summary.Recommendations,
				"alert_level":     insights.Anomalies.AlertLevel,
			}).Info("Dashboard insights refreshed")
		}, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start refresh scheduler: ", err)
	}
	defer scheduler.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: mux}
	go func() {
		log.WithField("address", cfg.Server.MetricsAddress).Info("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics endpoint failed")
		}
	}()
	defer srv.Close()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down analytics service")
}
