package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuditor struct {
	mu     sync.Mutex
	calls  map[string]int
	cancel context.CancelFunc
	stopAt int
	total  int
}

func newCountingAuditor() *countingAuditor {
	return &countingAuditor{calls: make(map[string]int)}
}

func (a *countingAuditor) Audit(ctx context.Context, spec models.QuerySpec) models.AuditResult {
	a.mu.Lock()
	a.calls[spec.Query]++
	a.total++
	if a.stopAt > 0 && a.total == a.stopAt && a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	return models.AuditResult{
		Query:     spec.Query,
		Category:  spec.Category,
		Passed:    true,
		Verdict:   models.VerdictPass,
		Timestamp: models.NowISO(),
	}
}

func testCorpus(n int) []models.QuerySpec {
	specs := make([]models.QuerySpec, n)
	for i := range specs {
		specs[i] = models.QuerySpec{Query: fmt.Sprintf("query-%03d", i), Category: "core"}
	}
	return specs
}

func testConfig() config.AuditConfig {
	return config.AuditConfig{
		BatchSize:       3,
		CheckpointEvery: 2,
		DelayMs:         1,
		WaveDelayMs:     1,
		MaxRetries:      2,
		BackoffMs:       1,
	}
}

func newTestOrchestrator(t *testing.T, auditor Auditor, mode Mode, cpPath string) *Orchestrator {
	log := logger.NewTestLogger(t)
	return New(auditor, NewCheckpoint(cpPath, log), testConfig(), mode, nil, log)
}

func TestRunSequentialComplete(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")
	auditor := newCountingAuditor()
	specs := testCorpus(7)

	results, err := newTestOrchestrator(t, auditor, ModeSequential, cpPath).
		Run(context.Background(), specs)

	require.NoError(t, err)
	require.Len(t, results, 7)
	for i, r := range results {
		assert.Equal(t, specs[i].Query, r.Query, "results keep corpus order")
	}
	for _, spec := range specs {
		assert.Equal(t, 1, auditor.calls[spec.Query], "each query audited exactly once")
	}

	_, statErr := os.Stat(cpPath)
	assert.True(t, os.IsNotExist(statErr), "checkpoint removed after clean completion")
}

func TestRunWaveOrderPreserved(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")
	auditor := newCountingAuditor()
	specs := testCorpus(10)

	results, err := newTestOrchestrator(t, auditor, ModeWave, cpPath).
		Run(context.Background(), specs)

	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, specs[i].Query, r.Query, "wave results appended in corpus order")
	}
}

func TestRunResumeIsIdempotent(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")
	specs := testCorpus(9)

	// First attempt: interrupted after four audits.
	ctx, cancel := context.WithCancel(context.Background())
	auditor := newCountingAuditor()
	auditor.cancel = cancel
	auditor.stopAt = 4

	_, err := newTestOrchestrator(t, auditor, ModeSequential, cpPath).Run(ctx, specs)
	require.Error(t, err)

	_, statErr := os.Stat(cpPath)
	require.NoError(t, statErr, "checkpoint kept after interrupt")

	// Second attempt with a fresh orchestrator completes the run.
	results, err := newTestOrchestrator(t, auditor, ModeSequential, cpPath).
		Run(context.Background(), specs)

	require.NoError(t, err)
	require.Len(t, results, 9, "no missing entries")

	seen := make(map[string]int)
	for _, r := range results {
		seen[r.Query]++
	}
	for _, spec := range specs {
		assert.Equal(t, 1, seen[spec.Query], "no duplicate entries for %s", spec.Query)
		assert.Equal(t, 1, auditor.calls[spec.Query], "%s not re-audited on resume", spec.Query)
	}

	_, statErr = os.Stat(cpPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRejectsOversizedCheckpoint(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")
	log := logger.NewTestLogger(t)
	cp := NewCheckpoint(cpPath, log)

	progress := &models.RunProgress{}
	for i := 0; i < 5; i++ {
		progress.Results = append(progress.Results, models.AuditResult{Query: fmt.Sprintf("q%d", i)})
	}
	require.NoError(t, cp.Save(progress))

	_, err := newTestOrchestrator(t, newCountingAuditor(), ModeSequential, cpPath).
		Run(context.Background(), testCorpus(3))

	require.Error(t, err)
}

func TestCheckpointRoundTrip(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")
	cp := NewCheckpoint(cpPath, logger.NewTestLogger(t))

	progress := &models.RunProgress{
		Results: []models.AuditResult{
			{Query: "lego set", Verdict: models.VerdictPass, Passed: true},
			{Query: "train set", Verdict: models.VerdictWordBoundary},
		},
	}
	require.NoError(t, cp.Save(progress))
	assert.Equal(t, 2, progress.Processed, "processed synced to result count on save")

	loaded, err := cp.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.Processed)
	assert.Equal(t, "lego set", loaded.Results[0].Query)
	assert.NotEmpty(t, loaded.LastUpdated)
}

func TestCheckpointLoadMissing(t *testing.T) {
	cp := NewCheckpoint(filepath.Join(t.TempDir(), "none.json"), logger.NewTestLogger(t))

	loaded, err := cp.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCheckpointLoadCorrupt(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "progress.json")

	tests := []string{
		`{"processed": 3, "results": [], "lastUpdated": "x"}`, // count mismatch
		`{"processed":`, // torn write
	}
	for _, content := range tests {
		require.NoError(t, os.WriteFile(cpPath, []byte(content), 0o644))

		_, err := NewCheckpoint(cpPath, logger.NewTestLogger(t)).Load()
		require.Error(t, err)
	}
}

func TestCheckpointClearIdempotent(t *testing.T) {
	cp := NewCheckpoint(filepath.Join(t.TempDir(), "none.json"), logger.NewTestLogger(t))
	assert.NoError(t, cp.Clear())
}
