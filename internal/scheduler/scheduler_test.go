package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/rpggio/probill/internal/metrics"
)

type runnerStub struct {
	mu      sync.Mutex
	periods []string
	report  *recurring.Report
	err     error
}

func (r *runnerStub) GenerateDue(_ context.Context, periodKey string) (*recurring.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods = append(r.periods, periodKey)
	return r.report, r.err
}

func fixedClock() time.Time {
	return time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)
}

func TestRunOnce_DefaultsToCurrentMonth(t *testing.T) {
	runner := &runnerStub{report: &recurring.Report{PeriodKey: "2025-04", Generated: []string{"s1", "s2"}, Skipped: 1}}
	m := metrics.New(prometheus.NewRegistry())
	s := New(runner, m, nil, WithClock(fixedClock))

	report, err := s.RunOnce(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"s1", "s2"}, report.Generated)
	require.Equal(t, []string{"2025-04"}, runner.periods)

	require.Equal(t, 1.0, testutil.ToFloat64(m.RecurringRunsTotal.WithLabelValues("success")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RecurringServicesTotal.WithLabelValues("generated")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RecurringServicesTotal.WithLabelValues("skipped")))
}

func TestRunOnce_ExplicitPeriod(t *testing.T) {
	runner := &runnerStub{report: &recurring.Report{PeriodKey: "2025-01"}}
	s := New(runner, nil, nil, WithClock(fixedClock))

	_, err := s.RunOnce(context.Background(), "2025-01")
	require.NoError(t, err)
	require.Equal(t, []string{"2025-01"}, runner.periods)
}

func TestRunOnce_RecordsFailures(t *testing.T) {
	runner := &runnerStub{
		report: &recurring.Report{PeriodKey: "2025-04", Generated: []string{"s1"}, Failed: 2},
		err:    errors.New("service s2: boom"),
	}
	m := metrics.New(prometheus.NewRegistry())
	s := New(runner, m, nil, WithClock(fixedClock))

	report, err := s.RunOnce(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, 2, report.Failed)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RecurringRunsTotal.WithLabelValues("error")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RecurringServicesTotal.WithLabelValues("failed")))
}

func TestRunOnce_NilReport(t *testing.T) {
	runner := &runnerStub{err: recurring.ErrInvalidPeriodKey}
	m := metrics.New(prometheus.NewRegistry())
	s := New(runner, m, nil)

	_, err := s.RunOnce(context.Background(), "2025-13")
	require.ErrorIs(t, err, recurring.ErrInvalidPeriodKey)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RecurringRunsTotal.WithLabelValues("error")))
}

func TestSchedule(t *testing.T) {
	s := New(&runnerStub{}, nil, nil)
	require.NoError(t, s.Schedule(DefaultSchedule))
	require.NoError(t, s.Schedule("@monthly"))
	require.Error(t, s.Schedule("not a schedule"))
	require.Len(t, s.cron.Entries(), 2)
}

func TestStartStop(t *testing.T) {
	s := New(&runnerStub{}, nil, nil)
	require.NoError(t, s.Schedule(DefaultSchedule))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.Error(t, s.ctx.Err())
}
