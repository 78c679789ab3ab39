package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	dir := t.TempDir()
	w := NewWriter(config.PathsConfig{
		HistoryDir: filepath.Join(dir, "history"),
		AlertLog:   filepath.Join(dir, "alerts.log"),
	}, logger.NewTestLogger(t))
	return w, dir
}

func TestSaveRunWritesHistoryAndLatest(t *testing.T) {
	w, dir := newTestWriter(t)

	summary := Summarize([]models.AuditResult{
		{Query: "lego set", Category: "brand", Passed: true, Verdict: models.VerdictPass},
	})

	path := w.SaveRun(summary, []models.AuditResult{{Query: "lego set"}})
	require.NotEmpty(t, path)

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "audit-"))

	latest, err := w.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, summary.RunID, latest.RunID)

	// History directory was created on demand.
	entries, err := os.ReadDir(filepath.Join(dir, "history"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "history file plus latest pointer")
}

func TestLoadLatestMissing(t *testing.T) {
	w, _ := newTestWriter(t)

	latest, err := w.LoadLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAppendAlertIsAppendOnly(t *testing.T) {
	w, _ := newTestWriter(t)

	w.AppendAlert(models.AlertRecord{Timestamp: "t1", PassRate: 85.0, Threshold: 90})
	w.AppendAlert(models.AlertRecord{Timestamp: "t2", PassRate: 82.5, Threshold: 90})

	alerts, err := w.ReadAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "t1", alerts[0].Timestamp)
	assert.Equal(t, 82.5, alerts[1].PassRate)
}

func TestReadAlertsMissingLog(t *testing.T) {
	w, _ := newTestWriter(t)

	alerts, err := w.ReadAlerts()
	require.NoError(t, err)
	assert.Nil(t, alerts)
}

func TestSaveCSV(t *testing.T) {
	w, _ := newTestWriter(t)

	path := w.SaveCSV([]models.AuditResult{{Query: "puzzle", Verdict: models.VerdictPass, Passed: true}})
	require.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, ".csv"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "puzzle")
}

func TestSaveRunFailureIsNonFatal(t *testing.T) {
	// History dir path occupied by a file: mkdir fails, SaveRun returns "".
	dir := t.TempDir()
	blocked := filepath.Join(dir, "history")
	require.NoError(t, os.WriteFile(blocked, []byte("not a dir"), 0o644))

	w := NewWriter(config.PathsConfig{
		HistoryDir: blocked,
		AlertLog:   filepath.Join(dir, "alerts.log"),
	}, logger.NewTestLogger(t))

	path := w.SaveRun(models.RunSummary{}, nil)
	assert.Empty(t, path)
}
