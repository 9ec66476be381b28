package service

import (
	"context"
	"testing"
	"time"

	"forex-sentiment-analyzer/internal/entity"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditRepo struct {
	unresolved []entity.AuditFailure
}

func (f *fakeAuditRepo) Create(context.Context, *entity.AuditFailure) error { return nil }

func (f *fakeAuditRepo) FindUnresolved(context.Context, int) ([]entity.AuditFailure, error) {
	return f.unresolved, nil
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Send(_ context.Context, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func runAt(ts time.Time, success bool) entity.CollectionRun {
	return entity.CollectionRun{Success: success, CreatedAt: ts}
}

func TestMonitorCheckHealth(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	t.Run("healthy pipeline", func(t *testing.T) {
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{
			runAt(now.Add(-1*time.Hour), true),
			runAt(now.Add(-5*time.Hour), true),
			runAt(now.Add(-9*time.Hour), false),
		}}
		svc := NewMonitorService(runRepo, &fakeAuditRepo{}, nil, testLogger(t), clock)

		report, err := svc.CheckHealth(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Healthy)
		assert.InDelta(t, 2.0/3.0, report.SuccessRate, 1e-9)
	})

	t.Run("low success rate is degraded", func(t *testing.T) {
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{
			runAt(now.Add(-1*time.Hour), false),
			runAt(now.Add(-2*time.Hour), false),
			runAt(now.Add(-3*time.Hour), true),
		}}
		svc := NewMonitorService(runRepo, &fakeAuditRepo{}, nil, testLogger(t), clock)

		report, err := svc.CheckHealth(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Healthy)
		assert.NotEmpty(t, report.Issues)
	})

	t.Run("stale pipeline is degraded", func(t *testing.T) {
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{
			runAt(now.Add(-12*time.Hour), true),
		}}
		svc := NewMonitorService(runRepo, &fakeAuditRepo{}, nil, testLogger(t), clock)

		report, err := svc.CheckHealth(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Healthy)
		require.NotNil(t, report.HoursSinceLastRun)
		assert.InDelta(t, 12.0, *report.HoursSinceLastRun, 1e-9)
	})

	t.Run("no runs recorded is degraded", func(t *testing.T) {
		svc := NewMonitorService(&fakeRunRepo{}, &fakeAuditRepo{}, nil, testLogger(t), clock)

		report, err := svc.CheckHealth(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Healthy)
		assert.Nil(t, report.HoursSinceLastRun)
	})

	t.Run("counts unresolved parse failures", func(t *testing.T) {
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{runAt(now.Add(-time.Hour), true)}}
		auditRepo := &fakeAuditRepo{unresolved: []entity.AuditFailure{{}, {}}}
		svc := NewMonitorService(runRepo, auditRepo, nil, testLogger(t), clock)

		report, err := svc.CheckHealth(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.UnresolvedParseFailures)
	})
}

func TestRunHealthCheckAlertsWhenDegraded(t *testing.T) {
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	t.Run("degraded pipeline triggers an alert", func(t *testing.T) {
		alerter := &recordingNotifier{}
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{
			runAt(now.Add(-1*time.Hour), false),
			runAt(now.Add(-2*time.Hour), false),
		}}
		svc := NewMonitorService(runRepo, &fakeAuditRepo{}, alerter, testLogger(t), clock)

		require.NoError(t, svc.RunHealthCheck(context.Background()))
		require.Len(t, alerter.messages, 1)
		assert.Contains(t, alerter.messages[0], "Degraded")
	})

	t.Run("healthy pipeline stays quiet", func(t *testing.T) {
		alerter := &recordingNotifier{}
		runRepo := &fakeRunRepo{runs: []entity.CollectionRun{runAt(now.Add(-time.Hour), true)}}
		svc := NewMonitorService(runRepo, &fakeAuditRepo{}, alerter, testLogger(t), clock)

		require.NoError(t, svc.RunHealthCheck(context.Background()))
		assert.Empty(t, alerter.messages)
	})
}
