package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"search-audit/internal/audit/report"
	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock releases waiters on demand.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, ch)
	return ch
}

// fire advances time and releases every pending waiter, blocking until at
// least one waiter has registered so ticks cannot be lost to scheduling.
func (c *fakeClock) fire(d time.Duration) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		if len(c.waiters) > 0 {
			c.now = c.now.Add(d)
			waiters := c.waiters
			c.waiters = nil
			now := c.now
			c.mu.Unlock()
			for _, ch := range waiters {
				ch <- now
			}
			return
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			panic("no clock waiter registered")
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeRunner struct {
	mu        sync.Mutex
	summaries []models.RunSummary
	err       error
	calls     int
	done      chan struct{}
}

func (r *fakeRunner) RunOnce(ctx context.Context) (models.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.calls
	r.calls++
	if r.done != nil {
		r.done <- struct{}{}
	}
	if r.err != nil {
		return models.RunSummary{}, r.err
	}
	if idx >= len(r.summaries) {
		idx = len(r.summaries) - 1
	}
	return r.summaries[idx], nil
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testWriter(t *testing.T) (*report.Writer, string) {
	dir := t.TempDir()
	alertLog := filepath.Join(dir, "alerts.log")
	w := report.NewWriter(config.PathsConfig{
		HistoryDir: filepath.Join(dir, "history"),
		AlertLog:   alertLog,
	}, logger.NewTestLogger(t))
	return w, alertLog
}

func newTestScheduler(t *testing.T, runner Runner, clock Clock, writer *report.Writer) *Scheduler {
	return New(runner, clock, 6*time.Hour, 90.0, writer, nil, logger.NewTestLogger(t))
}

func TestRunAndEvaluateHealthyAtThreshold(t *testing.T) {
	writer, _ := testWriter(t)
	runner := &fakeRunner{summaries: []models.RunSummary{{PassRate: 90.0, TotalQueries: 100}}}

	healthy := newTestScheduler(t, runner, newFakeClock(), writer).
		RunAndEvaluate(context.Background())

	assert.True(t, healthy, "exactly at threshold is healthy")

	alerts, err := writer.ReadAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRunAndEvaluateBreachJustBelowThreshold(t *testing.T) {
	writer, _ := testWriter(t)
	runner := &fakeRunner{summaries: []models.RunSummary{{
		PassRate:  89.9,
		Timestamp: "2026-09-01T00:00:00Z",
		FailingQueries: []models.FailingQuery{
			{Query: "train set", Verdict: "WORD_BOUNDARY"},
		},
	}}}

	healthy := newTestScheduler(t, runner, newFakeClock(), writer).
		RunAndEvaluate(context.Background())

	assert.False(t, healthy)

	alerts, err := writer.ReadAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 89.9, alerts[0].PassRate)
	assert.Equal(t, 90.0, alerts[0].Threshold)
	require.Len(t, alerts[0].FailingQueries, 1)
	assert.Equal(t, "train set", alerts[0].FailingQueries[0].Query)
}

func TestRunAndEvaluateCrashAlerts(t *testing.T) {
	writer, _ := testWriter(t)
	runner := &fakeRunner{err: errors.New("corpus unreadable")}

	healthy := newTestScheduler(t, runner, newFakeClock(), writer).
		RunAndEvaluate(context.Background())

	assert.False(t, healthy)

	alerts, err := writer.ReadAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "corpus unreadable")
}

func TestStartRunsImmediatelyAndReschedules(t *testing.T) {
	writer, _ := testWriter(t)
	clock := newFakeClock()
	runner := &fakeRunner{
		summaries: []models.RunSummary{{PassRate: 95.0}},
		done:      make(chan struct{}, 10),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := newTestScheduler(t, runner, clock, writer)
	go sched.Start(ctx)

	// First run fires without any clock advance.
	waitForRun(t, runner.done)
	assert.Equal(t, 1, runner.callCount())

	// Each interval tick triggers exactly one more run.
	clock.fire(6 * time.Hour)
	waitForRun(t, runner.done)
	assert.Equal(t, 2, runner.callCount())

	clock.fire(6 * time.Hour)
	waitForRun(t, runner.done)
	assert.Equal(t, 3, runner.callCount())

	cancel()
}

func TestStartKeepsGoingAfterCrash(t *testing.T) {
	writer, _ := testWriter(t)
	clock := newFakeClock()
	runner := &fakeRunner{
		err:  errors.New("flaky infrastructure"),
		done: make(chan struct{}, 10),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go newTestScheduler(t, runner, clock, writer).Start(ctx)

	waitForRun(t, runner.done)
	clock.fire(6 * time.Hour)
	waitForRun(t, runner.done)

	assert.Equal(t, 2, runner.callCount(), "crashes do not stop the loop")
}

func waitForRun(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a scheduled run")
	}
}
