package scoring

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
	"github.com/driftwatch/driftd/internal/queue"
)

const testAlertSubject = "driftwatch.alerts"

func newTestService(t *testing.T, alertEnabled bool) (*Service, *queue.MemoryQueue) {
	t.Helper()

	mq := queue.NewMemoryQueue()
	t.Cleanup(func() { _ = mq.Close() })

	cfg := config.AlertConfig{
		Enabled:   alertEnabled,
		Threshold: 3.0,
		Subject:   testAlertSubject,
	}

	registry := baseline.NewRegistry(100, 24)
	return NewService(registry, mq, cfg, logging.NewDevelopment()), mq
}

func TestObserve_StableSample(t *testing.T) {
	svc, mq := newTestService(t, true)

	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		result, err := svc.Observe(context.Background(), "mysql.query_latency.host-3", 100.0, ts.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.False(t, result.Alerted)
	}

	assert.Equal(t, 0, mq.GetPendingCount(testAlertSubject))
}

func TestObserve_AnomalousSampleAlerts(t *testing.T) {
	svc, mq := newTestService(t, true)

	signal := "mysql.query_latency.host-3"
	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	// Baseline of mostly-flat values with slight jitter, then a spike
	for i := 0; i < 30; i++ {
		value := 100.0
		if i%2 == 0 {
			value = 102.0
		}
		_, err := svc.Observe(context.Background(), signal, value, ts.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	result, err := svc.Observe(context.Background(), signal, 500.0, ts.Add(31*time.Minute))
	require.NoError(t, err)

	assert.True(t, result.Alerted)
	assert.Greater(t, result.Score, 3.0)
	require.Equal(t, 1, mq.GetPendingCount(testAlertSubject))
}

func TestObserve_AlertEventContents(t *testing.T) {
	svc, mq := newTestService(t, true)

	signal := "redis.ops.cache-1"
	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	received := make(chan []byte, 1)
	require.NoError(t, mq.Subscribe(testAlertSubject, func(data []byte) error {
		received <- data
		return nil
	}))

	for i := 0; i < 20; i++ {
		value := 50.0 + float64(i%3)
		_, err := svc.Observe(context.Background(), signal, value, ts.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	result, err := svc.Observe(context.Background(), signal, 5000.0, ts.Add(21*time.Minute))
	require.NoError(t, err)
	require.True(t, result.Alerted)

	select {
	case data := <-received:
		var event models.AlertEvent
		require.NoError(t, json.Unmarshal(data, &event))
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, signal, event.Signal)
		assert.Equal(t, 5000.0, event.Value)
		assert.Equal(t, 3.0, event.Threshold)
		assert.Equal(t, result.Score, event.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for alert event")
	}
}

func TestObserve_AlertsDisabled(t *testing.T) {
	svc, mq := newTestService(t, false)

	signal := "pg.connections.primary"
	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		value := 10.0 + float64(i%2)
		_, err := svc.Observe(context.Background(), signal, value, ts.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	result, err := svc.Observe(context.Background(), signal, 9000.0, ts.Add(21*time.Minute))
	require.NoError(t, err)

	// Score crosses the threshold but no alert is emitted
	assert.Greater(t, result.Score, 3.0)
	assert.False(t, result.Alerted)
	assert.Equal(t, 0, mq.GetPendingCount(testAlertSubject))
}

func TestObserve_NonFiniteRejected(t *testing.T) {
	svc, _ := newTestService(t, true)

	nan := func() float64 {
		zero := 0.0
		return zero / zero
	}()

	_, err := svc.Observe(context.Background(), "sig", nan, time.Now())
	assert.ErrorIs(t, err, baseline.ErrNonFinite)
}

func TestObserve_NegativeSpikeAlerts(t *testing.T) {
	svc, mq := newTestService(t, true)

	signal := "disk.free.host-7"
	ts := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		value := 1000.0 + float64(i%4)
		_, err := svc.Observe(context.Background(), signal, value, ts.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	result, err := svc.Observe(context.Background(), signal, 1.0, ts.Add(21*time.Minute))
	require.NoError(t, err)

	assert.Less(t, result.Score, -3.0)
	assert.True(t, result.Alerted)
	assert.Equal(t, 1, mq.GetPendingCount(testAlertSubject))
}
