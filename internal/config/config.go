package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for the analytics service
type Config struct {
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnalyticsConfig configures the predictive analytics core. It is resolved
// once at load time and immutable for the lifetime of a computation pass.
type AnalyticsConfig struct {
	AnomalyDetection AnomalyDetectionConfig `mapstructure:"anomaly_detection"`
	Forecasting      ForecastingConfig      `mapstructure:"forecasting"`
	Recommendations  RecommendationsConfig  `mapstructure:"recommendations"`
}

// AnomalyDetectionConfig configures the rolling z-score detector
type AnomalyDetectionConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Sensitivity    string `mapstructure:"sensitivity"` // low, medium, high
	LookbackPeriod int    `mapstructure:"lookback_period"`
	MinDataPoints  int    `mapstructure:"min_data_points"`
}

// ForecastingConfig configures the forecast engine and ensemble
type ForecastingConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Horizon         int           `mapstructure:"horizon"`
	UpdateFrequency time.Duration `mapstructure:"update_frequency"`
	Models          []string      `mapstructure:"models"`
}

// RecommendationsConfig configures the recommendation generator
type RecommendationsConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	MaxRecommendations int     `mapstructure:"max_recommendations"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
}

// ServerConfig configures the operational HTTP endpoint
type ServerConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
}

// DatabaseConfig configures the optional metric history store
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// LoggingConfig configures logging output
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from configs/analytics.yaml plus environment overrides
func Load() (*Config, error) {
	viper.SetConfigName("analytics")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("database.path", "ANALYTICS_DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("analytics.anomaly_detection.sensitivity", "ANALYTICS_ANOMALY_SENSITIVITY")
	viper.BindEnv("analytics.forecasting.horizon", "ANALYTICS_FORECAST_HORIZON")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults and env suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultAnalyticsConfig returns the analytics defaults used when the caller
// constructs the system directly instead of loading a file
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		AnomalyDetection: AnomalyDetectionConfig{
			Enabled:        true,
			Sensitivity:    "medium",
			LookbackPeriod: 30,
			MinDataPoints:  10,
		},
		Forecasting: ForecastingConfig{
			Enabled:         true,
			Horizon:         7,
			UpdateFrequency: time.Hour,
			Models:          []string{"linear", "exponential", "seasonal", "arima"},
		},
		Recommendations: RecommendationsConfig{
			Enabled:            true,
			MaxRecommendations: 10,
			MinConfidence:      0.6,
		},
	}
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	switch c.Analytics.AnomalyDetection.Sensitivity {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("invalid anomaly sensitivity: %s", c.Analytics.AnomalyDetection.Sensitivity)
	}

	if c.Analytics.Forecasting.Horizon < 1 {
		return fmt.Errorf("forecast horizon must be positive, got %d", c.Analytics.Forecasting.Horizon)
	}

	if mc := c.Analytics.Recommendations.MinConfidence; mc < 0 || mc > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %f", mc)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("analytics.anomaly_detection.enabled", true)
	viper.SetDefault("analytics.anomaly_detection.sensitivity", "medium")
	viper.SetDefault("analytics.anomaly_detection.lookback_period", 30)
	viper.SetDefault("analytics.anomaly_detection.min_data_points", 10)

	viper.SetDefault("analytics.forecasting.enabled", true)
	viper.SetDefault("analytics.forecasting.horizon", 7)
	viper.SetDefault("analytics.forecasting.update_frequency", time.Hour)
	viper.SetDefault("analytics.forecasting.models", []string{"linear", "exponential", "seasonal", "arima"})

	viper.SetDefault("analytics.recommendations.enabled", true)
	viper.SetDefault("analytics.recommendations.max_recommendations", 10)
	viper.SetDefault("analytics.recommendations.min_confidence", 0.6)

	viper.SetDefault("server.metrics_address", ":9090")

	viper.SetDefault("database.path", "./data/analytics.db")
	viper.SetDefault("database.max_connections", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
