// Package orchestrator drives a full audit run over a corpus: sequential or
// wave execution, resumable checkpoints, and per-query metrics.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/common/metrics"
	"search-audit/internal/common/observability"
	"search-audit/internal/models"
)

// Mode selects the execution strategy.
type Mode string

const (
	// ModeSequential audits one query at a time with an inter-query delay.
	ModeSequential Mode = "sequential"
	// ModeWave audits fixed-size waves concurrently with a barrier between
	// waves. Results are appended in wave order, not completion order.
	ModeWave Mode = "wave"
)

const tallyEvery = 50

type Orchestrator struct {
	auditor    Auditor
	checkpoint *Checkpoint
	cfg        config.AuditConfig
	mode       Mode
	obs        *observability.Observability
	log        logger.Logger
	progressFn func(passed bool)
}

func New(auditor Auditor, checkpoint *Checkpoint, cfg config.AuditConfig, mode Mode, obs *observability.Observability, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		auditor:    auditor,
		checkpoint: checkpoint,
		cfg:        cfg,
		mode:       mode,
		obs:        obs,
		log:        log,
	}
}

// SetProgressFunc installs the per-query console tally hook. Used by the
// runner binaries for the dot/X progress line.
func (o *Orchestrator) SetProgressFunc(fn func(passed bool)) {
	o.progressFn = fn
}

// Run audits every entry of the corpus and returns the complete result set.
// If a checkpoint exists, the first Processed entries are skipped and their
// stored results reused; on clean completion the checkpoint is removed.
func (o *Orchestrator) Run(ctx context.Context, specs []models.QuerySpec) ([]models.AuditResult, error) {
	progress, err := o.checkpoint.Load()
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = &models.RunProgress{}
	}

	if progress.Processed > len(specs) {
		return nil, fmt.Errorf("checkpoint has %d processed entries but corpus holds %d", progress.Processed, len(specs))
	}
	if progress.Processed > 0 {
		o.log.Info("resuming from checkpoint", map[string]interface{}{
			"processed": progress.Processed,
			"remaining": len(specs) - progress.Processed,
		})
	}

	remaining := specs[progress.Processed:]

	switch o.mode {
	case ModeWave:
		err = o.runWaves(ctx, remaining, progress)
	default:
		err = o.runSequential(ctx, remaining, progress)
	}
	if err != nil {
		// Interrupted: keep the checkpoint for the next attempt.
		if saveErr := o.checkpoint.Save(progress); saveErr != nil {
			o.log.Error("failed to save checkpoint on interrupt", map[string]interface{}{
				"error": saveErr.Error(),
			})
		}
		return nil, err
	}

	if err := o.checkpoint.Save(progress); err != nil {
		return nil, err
	}
	if err := o.checkpoint.Clear(); err != nil {
		o.log.Warn("failed to remove checkpoint after completion", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return progress.Results, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, specs []models.QuerySpec, progress *models.RunProgress) error {
	delay := config.GetDuration(o.cfg.DelayMs)

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := o.auditOne(ctx, spec)
		progress.Results = append(progress.Results, result)
		o.afterAppend(progress)

		if i < len(specs)-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

func (o *Orchestrator) runWaves(ctx context.Context, specs []models.QuerySpec, progress *models.RunProgress) error {
	waveDelay := config.GetDuration(o.cfg.WaveDelayMs)

	for start := 0; start < len(specs); start += o.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + o.cfg.BatchSize
		if end > len(specs) {
			end = len(specs)
		}
		wave := specs[start:end]

		// Wave barrier: all queries of a wave finish before any result is
		// appended, and results keep wave order.
		waveResults := make([]models.AuditResult, len(wave))
		var wg sync.WaitGroup
		for i, spec := range wave {
			wg.Add(1)
			go func(i int, spec models.QuerySpec) {
				defer wg.Done()
				waveResults[i] = o.auditOne(ctx, spec)
			}(i, spec)
		}
		wg.Wait()

		for _, result := range waveResults {
			progress.Results = append(progress.Results, result)
			o.afterAppend(progress)
		}

		if end < len(specs) {
			select {
			case <-time.After(waveDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

func (o *Orchestrator) auditOne(ctx context.Context, spec models.QuerySpec) models.AuditResult {
	result := o.auditor.Audit(ctx, spec)

	mode := string(o.mode)
	metrics.QueriesAudited.WithLabelValues(mode).Inc()
	metrics.QueryDuration.WithLabelValues(mode).Observe(float64(result.ResponseTimeMs) / 1000)
	if !result.Passed {
		metrics.QueryFailures.WithLabelValues(mode, string(result.Verdict)).Inc()
	}
	if o.obs != nil {
		o.obs.RecordQueryProcessed(ctx, string(result.Verdict))
		o.obs.RecordQueryDuration(ctx, time.Duration(result.ResponseTimeMs)*time.Millisecond, string(result.Verdict))
	}

	if o.progressFn != nil {
		o.progressFn(result.Passed)
	}

	return result
}

// afterAppend checkpoints and logs the running tally at the configured
// cadence. Checkpoint write failures are logged, not fatal: losing a
// checkpoint costs a resume, not a run.
func (o *Orchestrator) afterAppend(progress *models.RunProgress) {
	n := len(progress.Results)

	if n%o.cfg.CheckpointEvery == 0 {
		if err := o.checkpoint.Save(progress); err != nil {
			o.log.Error("checkpoint write failed", map[string]interface{}{
				"processed": n,
				"error":     err.Error(),
			})
		}
	}

	if n%tallyEvery == 0 {
		passed := 0
		for _, r := range progress.Results {
			if r.Passed {
				passed++
			}
		}
		o.log.Info("audit progress", map[string]interface{}{
			"processed": n,
			"passed":    passed,
			"failed":    n - passed,
		})
	}
}
