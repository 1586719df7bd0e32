// Package historical provides a sqlite-backed metric observation store that
// implements the collaborator boundary of the analytics core: callers record
// observations and load ordered histories per metric.
package historical

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/frostdev-ops/pma-analytics-go/internal/core/analytics"
)

const schema = `
CREATE TABLE IF NOT EXISTS metric_observations (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	value              REAL NOT NULL,
	timestamp          DATETIME NOT NULL,
	category           TEXT NOT NULL DEFAULT '',
	aggregation_period TEXT NOT NULL DEFAULT 'daily'
);
CREATE INDEX IF NOT EXISTS idx_metric_observations_name_ts
	ON metric_observations (name, timestamp);
`

// Store persists metric observations in sqlite
type Store struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewStore opens (or creates) the sqlite database at path
func NewStore(path string, maxConns int, logger *logrus.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordObservation stores one observation under the given aggregation period
func (s *Store) RecordObservation(ctx context.Context, obs analytics.MetricObservation, period string) error {
	query := `
		INSERT INTO metric_observations (id, name, value, timestamp, category, aggregation_period)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		obs.ID, obs.Name, obs.Value, obs.Timestamp.UTC(), obs.Category, period)
	if err != nil {
		return fmt.Errorf("failed to record observation for %s: %w", obs.Name, err)
	}

	s.logger.WithFields(logrus.Fields{
		"metric": obs.Name,
		"value":  obs.Value,
	}).Debug("Recorded metric observation")
	return nil
}

// LoadHistory returns the ordered observation history for one metric
func (s *Store) LoadHistory(ctx context.Context, metric string) (analytics.MetricHistory, error) {
	query := `
		SELECT id, name, value, timestamp, category, aggregation_period
		FROM metric_observations
		WHERE name = ?
		ORDER BY timestamp`

	rows, err := s.db.QueryxContext(ctx, query, metric)
	if err != nil {
		return analytics.MetricHistory{}, fmt.Errorf("failed to load history for %s: %w", metric, err)
	}
	defer rows.Close()

	history := analytics.MetricHistory{MetricName: metric}
	for rows.Next() {
		var obs analytics.MetricObservation
		var period string
		if err := rows.Scan(&obs.ID, &obs.Name, &obs.Value, &obs.Timestamp, &obs.Category, &period); err != nil {
			return analytics.MetricHistory{}, fmt.Errorf("failed to scan observation: %w", err)
		}
		history.AggregationPeriod = period
		history.Observations = append(history.Observations, obs)
	}
	if err := rows.Err(); err != nil {
		return analytics.MetricHistory{}, fmt.Errorf("failed to read observations: %w", err)
	}

	return history, nil
}

// MetricNames lists the distinct metrics present in the store
func (s *Store) MetricNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names,
		`SELECT DISTINCT name FROM metric_observations ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list metric names: %w", err)
	}
	return names, nil
}

// LoadHistories loads every metric's history; implements
// analytics.HistoryProvider for the refresh scheduler
func (s *Store) LoadHistories(ctx context.Context) ([]analytics.MetricHistory, error) {
	names, err := s.MetricNames(ctx)
	if err != nil {
		return nil, err
	}

	histories := make([]analytics.MetricHistory, 0, len(names))
	for _, name := range names {
		history, err := s.LoadHistory(ctx, name)
		if err != nil {
			return nil, err
		}
		histories = append(histories, history)
	}
	return histories, nil
}
