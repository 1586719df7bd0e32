package historical

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/pma-analytics-go/internal/core/analytics"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"), 1, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedMetric(t *testing.T, store *Store, name string, values []float64) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		obs := analytics.MetricObservation{
			ID:        uuid.NewString(),
			Name:      name,
			Value:     v,
			Timestamp: base.AddDate(0, 0, i),
			Category:  "test",
		}
		require.NoError(t, store.RecordObservation(context.Background(), obs, "daily"))
	}
}

func TestStore_RecordAndLoadHistory(t *testing.T) {
	store := testStore(t)
	seedMetric(t, store, "sales", []float64{10, 20, 30})

	history, err := store.LoadHistory(context.Background(), "sales")
	require.NoError(t, err)

	assert.Equal(t, "sales", history.MetricName)
	assert.Equal(t, "daily", history.AggregationPeriod)
	require.Len(t, history.Observations, 3)
	assert.Equal(t, []float64{10, 20, 30}, history.Values())
	assert.True(t, history.Observations[0].Timestamp.Before(history.Observations[2].Timestamp))
}

func TestStore_LoadHistoryOrdersByTimestamp(t *testing.T) {
	store := testStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Insert out of order; reads come back sorted
	for _, day := range []int{2, 0, 1} {
		obs := analytics.MetricObservation{
			ID:        fmt.Sprintf("obs-%d", day),
			Name:      "orders",
			Value:     float64(day),
			Timestamp: base.AddDate(0, 0, day),
		}
		require.NoError(t, store.RecordObservation(context.Background(), obs, "daily"))
	}

	history, err := store.LoadHistory(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, history.Values())
}

func TestStore_LoadHistoryUnknownMetric(t *testing.T) {
	store := testStore(t)

	history, err := store.LoadHistory(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, "missing", history.MetricName)
	assert.Empty(t, history.Observations)
}

func TestStore_MetricNames(t *testing.T) {
	store := testStore(t)
	seedMetric(t, store, "zeta", []float64{1})
	seedMetric(t, store, "alpha", []float64{1, 2})

	names, err := store.MetricNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestStore_LoadHistories(t *testing.T) {
	store := testStore(t)
	seedMetric(t, store, "cpu", []float64{1, 2, 3})
	seedMetric(t, store, "memory", []float64{4, 5})

	histories, err := store.LoadHistories(context.Background())
	require.NoError(t, err)

	require.Len(t, histories, 2)
	assert.Equal(t, "cpu", histories[0].MetricName)
	assert.Len(t, histories[0].Observations, 3)
	assert.Equal(t, "memory", histories[1].MetricName)
	assert.Len(t, histories[1].Observations, 2)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	store := testStore(t)

	obs := analytics.MetricObservation{
		ID:        "fixed-id",
		Name:      "sales",
		Value:     1,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.RecordObservation(context.Background(), obs, "daily"))
	assert.Error(t, store.RecordObservation(context.Background(), obs, "daily"))
}
