package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"search-audit/internal/common/errors"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"
)

// Checkpoint persists run progress so an interrupted batch resumes instead
// of restarting. Writes go through a temp file and rename so a crash leaves
// either the previous checkpoint or the new one, never a torn file.
type Checkpoint struct {
	path string
	log  logger.Logger
}

func NewCheckpoint(path string, log logger.Logger) *Checkpoint {
	return &Checkpoint{path: path, log: log}
}

// Load returns the stored progress, or nil when no checkpoint exists.
func (c *Checkpoint) Load() (*models.RunProgress, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewCheckpointReadFailedError(err)
	}

	var progress models.RunProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		return nil, errors.NewCheckpointCorruptError(err.Error())
	}

	if progress.Processed != len(progress.Results) {
		return nil, errors.NewCheckpointCorruptError(fmt.Sprintf(
			"processed=%d but %d results stored", progress.Processed, len(progress.Results)))
	}

	return &progress, nil
}

// Save writes progress atomically. The processed count always mirrors the
// stored result count.
func (c *Checkpoint) Save(progress *models.RunProgress) error {
	progress.Processed = len(progress.Results)
	progress.LastUpdated = models.NowISO()

	raw, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return errors.NewCheckpointWriteFailedError(err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewCheckpointWriteFailedError(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return errors.NewCheckpointWriteFailedError(err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.NewCheckpointWriteFailedError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.NewCheckpointWriteFailedError(err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return errors.NewCheckpointWriteFailedError(err)
	}

	return nil
}

// Clear removes the checkpoint after a clean completion.
func (c *Checkpoint) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.NewCheckpointWriteFailedError(err)
	}
	return nil
}
