// Package scheduler runs the audit on an interval and raises alerts when a
// run breaches the pass-rate threshold or crashes outright.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"search-audit/internal/audit/report"
	"search-audit/internal/common/logger"
	"search-audit/internal/common/metrics"
	"search-audit/internal/models"
)

// Runner executes one complete audit run and returns its summary.
type Runner interface {
	RunOnce(ctx context.Context) (models.RunSummary, error)
}

type Scheduler struct {
	runner    Runner
	clock     Clock
	interval  time.Duration
	threshold float64
	writer    *report.Writer
	notifier  *Notifier
	log       logger.Logger
}

func New(runner Runner, clock Clock, interval time.Duration, threshold float64, writer *report.Writer, notifier *Notifier, log logger.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		clock:     clock,
		interval:  interval,
		threshold: threshold,
		writer:    writer,
		notifier:  notifier,
		log:       log,
	}
}

// RunAndEvaluate performs one run and applies the alert policy. It reports
// whether the run is healthy: a crashed run or a pass rate strictly below
// the threshold is unhealthy. A rate exactly at the threshold passes.
func (s *Scheduler) RunAndEvaluate(ctx context.Context) bool {
	summary, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.log.Error("audit run crashed", map[string]interface{}{"error": err.Error()})
		metrics.RunsCompleted.WithLabelValues("crashed").Inc()

		s.raiseAlert(ctx, models.AlertRecord{
			Timestamp: models.NowISO(),
			PassRate:  0,
			Threshold: s.threshold,
			Message:   fmt.Sprintf("audit run crashed: %s", err.Error()),
		})
		return false
	}

	metrics.RunPassRate.Set(summary.PassRate)

	if summary.PassRate < s.threshold {
		s.log.Warn("pass rate below threshold", map[string]interface{}{
			"passRate":  summary.PassRate,
			"threshold": s.threshold,
		})
		metrics.RunsCompleted.WithLabelValues("breached").Inc()

		s.raiseAlert(ctx, models.AlertRecord{
			Timestamp:      summary.Timestamp,
			PassRate:       summary.PassRate,
			Threshold:      s.threshold,
			FailingQueries: summary.FailingQueries,
		})
		return false
	}

	s.log.Info("audit run healthy", map[string]interface{}{
		"passRate": summary.PassRate,
		"queries":  summary.TotalQueries,
	})
	metrics.RunsCompleted.WithLabelValues("healthy").Inc()
	return true
}

func (s *Scheduler) raiseAlert(ctx context.Context, alert models.AlertRecord) {
	if s.writer != nil {
		s.writer.AppendAlert(alert)
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyBreach(ctx, alert); err != nil {
			s.log.Error("alert notification failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Start runs immediately, then re-runs after each interval measured from run
// completion, until the context ends. Crashed runs never stop the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started", map[string]interface{}{
		"interval":  s.interval.String(),
		"threshold": s.threshold,
	})

	for {
		s.RunAndEvaluate(ctx)

		next := s.clock.Now().Add(s.interval)
		s.log.Info("next audit scheduled", map[string]interface{}{
			"at": next.UTC().Format(time.RFC3339),
		})

		select {
		case <-s.clock.After(s.interval):
		case <-ctx.Done():
			s.log.Info("scheduler stopped", nil)
			return
		}
	}
}
