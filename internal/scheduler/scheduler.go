// Package scheduler runs recurring billing on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/rpggio/probill/internal/metrics"
)

// DefaultSchedule runs recurring billing at 02:00 UTC on the first day of each month.
const DefaultSchedule = "0 2 1 * *"

// Runner generates the invoices of one period for every recurring service.
type Runner interface {
	GenerateDue(ctx context.Context, periodKey string) (*recurring.Report, error)
}

// Scheduler triggers Runner for the current month on a cron schedule.
// A run still in progress when the next one fires makes that one skip.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to pick the billed period.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. Metrics may be nil.
func New(runner Runner, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Schedule registers the recurring run under a standard five-field cron spec.
func (s *Scheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		_, _ = s.RunOnce(s.ctx, "")
	}); err != nil {
		return fmt.Errorf("invalid recurring schedule %q: %w", spec, err)
	}
	s.logger.Info("recurring billing scheduled", "schedule", spec)
	return nil
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels any running job and waits for it to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce generates periodKey, or the current month when periodKey is empty,
// and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, periodKey string) (*recurring.Report, error) {
	if periodKey == "" {
		periodKey = recurring.PeriodKey(s.now())
	}

	start := time.Now()
	s.logger.Info("recurring billing run started", "period", periodKey)
	report, err := s.runner.GenerateDue(ctx, periodKey)

	var generated, skipped, failed int
	if report != nil {
		generated, skipped, failed = len(report.Generated), report.Skipped, report.Failed
	}
	s.metrics.ObserveRecurringRun(generated, skipped, failed, err)

	if err != nil {
		s.logger.Error("recurring billing run failed", "period", periodKey,
			"generated", generated, "skipped", skipped, "failed", failed, "error", err)
		return report, err
	}
	s.logger.Info("recurring billing run completed", "period", periodKey,
		"generated", generated, "skipped", skipped, "duration", time.Since(start))
	return report, nil
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
