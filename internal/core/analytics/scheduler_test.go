package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	histories []MetricHistory
	err       error
}

func (p *staticProvider) LoadHistories(context.Context) ([]MetricHistory, error) {
	return p.histories, p.err
}

func TestScheduler_RefreshDeliversInsights(t *testing.T) {
	system := testSystem(t)
	provider := &staticProvider{histories: []MetricHistory{
		makeHistory("sales", linearSeries(30, 100, 2)),
	}}

	delivered := make(chan *DashboardInsights, 1)
	scheduler := NewScheduler(system, provider, time.Hour, func(insights *DashboardInsights) {
		delivered <- insights
	}, testLogger())

	scheduler.refresh()

	select {
	case insights := <-delivered:
		assert.Equal(t, 1, insights.Summary.TotalMetrics)
		assert.Contains(t, insights.Forecasts.Forecasts, "sales")
	default:
		t.Fatal("refresh did not deliver insights")
	}
}

func TestScheduler_ProviderErrorSkipsCallback(t *testing.T) {
	system := testSystem(t)
	provider := &staticProvider{err: errors.New("database unavailable")}

	called := false
	scheduler := NewScheduler(system, provider, time.Hour, func(*DashboardInsights) {
		called = true
	}, testLogger())

	scheduler.refresh()
	assert.False(t, called)
}

func TestScheduler_StartStop(t *testing.T) {
	system := testSystem(t)
	provider := &staticProvider{histories: []MetricHistory{
		makeHistory("sales", linearSeries(10, 100, 1)),
	}}

	delivered := make(chan *DashboardInsights, 4)
	scheduler := NewScheduler(system, provider, 50*time.Millisecond, func(insights *DashboardInsights) {
		delivered <- insights
	}, testLogger())

	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler never fired")
	}
}

func TestScheduler_NilCallbackIsSafe(t *testing.T) {
	system := testSystem(t)
	provider := &staticProvider{}

	scheduler := NewScheduler(system, provider, time.Hour, nil, testLogger())
	assert.NotPanics(t, scheduler.refresh)
}
