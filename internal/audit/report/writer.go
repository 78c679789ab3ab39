package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"
)

const latestFileName = "audit-latest.json"

// Writer persists run artifacts to the history directory. Write failures are
// logged and swallowed: losing a history file must never fail the run that
// produced it.
type Writer struct {
	historyDir string
	alertLog   string
	log        logger.Logger
}

func NewWriter(paths config.PathsConfig, log logger.Logger) *Writer {
	return &Writer{
		historyDir: paths.HistoryDir,
		alertLog:   paths.AlertLog,
		log:        log,
	}
}

// historyFile is the on-disk shape of one archived run.
type historyFile struct {
	Summary models.RunSummary    `json:"summary"`
	Results []models.AuditResult `json:"results"`
}

// SaveRun writes the timestamped history file and repoints audit-latest.json
// at the same content. Returns the history file path when written.
func (w *Writer) SaveRun(summary models.RunSummary, results []models.AuditResult) string {
	if err := os.MkdirAll(w.historyDir, 0o755); err != nil {
		w.log.Error("failed to create history directory", map[string]interface{}{
			"dir":   w.historyDir,
			"error": err.Error(),
		})
		return ""
	}

	raw, err := json.MarshalIndent(historyFile{Summary: summary, Results: results}, "", "  ")
	if err != nil {
		w.log.Error("failed to encode run history", map[string]interface{}{"error": err.Error()})
		return ""
	}

	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	path := filepath.Join(w.historyDir, fmt.Sprintf("audit-%s.json", stamp))

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		w.log.Error("failed to write history file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}

	latest := filepath.Join(w.historyDir, latestFileName)
	if err := os.WriteFile(latest, raw, 0o644); err != nil {
		w.log.Warn("failed to update latest pointer", map[string]interface{}{
			"path":  latest,
			"error": err.Error(),
		})
	}

	return path
}

// SaveCSV writes the scored-run CSV export next to the history files.
func (w *Writer) SaveCSV(results []models.AuditResult) string {
	if err := os.MkdirAll(w.historyDir, 0o755); err != nil {
		w.log.Error("failed to create history directory", map[string]interface{}{
			"dir":   w.historyDir,
			"error": err.Error(),
		})
		return ""
	}

	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	path := filepath.Join(w.historyDir, fmt.Sprintf("audit-%s.csv", stamp))

	if err := os.WriteFile(path, []byte(ToCSV(results)), 0o644); err != nil {
		w.log.Error("failed to write csv export", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}

	return path
}

// AppendAlert appends one line to the append-only alert log.
func (w *Writer) AppendAlert(alert models.AlertRecord) {
	if err := os.MkdirAll(filepath.Dir(w.alertLog), 0o755); err != nil {
		w.log.Error("failed to create alert log directory", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	raw, err := json.Marshal(alert)
	if err != nil {
		w.log.Error("failed to encode alert", map[string]interface{}{"error": err.Error()})
		return
	}

	f, err := os.OpenFile(w.alertLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		w.log.Error("failed to open alert log", map[string]interface{}{
			"path":  w.alertLog,
			"error": err.Error(),
		})
		return
	}
	defer f.Close()

	if _, err := f.WriteString(string(raw) + "\n"); err != nil {
		w.log.Error("failed to append alert", map[string]interface{}{"error": err.Error()})
	}
}

// LoadLatest reads the latest-run pointer, or nil when no run exists yet.
func (w *Writer) LoadLatest() (*models.RunSummary, error) {
	raw, err := os.ReadFile(filepath.Join(w.historyDir, latestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var file historyFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	return &file.Summary, nil
}

// ReadAlerts returns every alert in the log, oldest first.
func (w *Writer) ReadAlerts() ([]models.AlertRecord, error) {
	raw, err := os.ReadFile(w.alertLog)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var alerts []models.AlertRecord
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line == "" {
			continue
		}
		var alert models.AlertRecord
		if err := json.Unmarshal([]byte(line), &alert); err != nil {
			w.log.Warn("skipping unparseable alert line", map[string]interface{}{"error": err.Error()})
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}
