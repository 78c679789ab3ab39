package report

import (
	"context"
	"encoding/json"

	"search-audit/internal/common/database"
	"search-audit/internal/common/errors"
	"search-audit/internal/models"
)

// Store archives one row per run in Postgres for trend queries.
type Store struct {
	db *database.PostgresClient
}

func NewStore(db *database.PostgresClient) *Store {
	return &Store{db: db}
}

const insertRunSQL = `
INSERT INTO audit_runs (run_id, completed_at, total_queries, passed, failed, pass_rate, avg_response_ms, failure_patterns)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// InsertRun persists the summary row.
func (s *Store) InsertRun(ctx context.Context, summary models.RunSummary) error {
	patterns, err := json.Marshal(summary.FailurePatterns)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	_, err = s.db.Exec(ctx, insertRunSQL,
		summary.RunID,
		summary.Timestamp,
		summary.TotalQueries,
		summary.Passed,
		summary.Failed,
		summary.PassRate,
		summary.AvgResponseTimeMs,
		patterns,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

const recentRunsSQL = `
SELECT run_id, completed_at, total_queries, passed, failed, pass_rate, avg_response_ms
FROM audit_runs
ORDER BY completed_at DESC
LIMIT $1`

// RecentRuns returns the newest run summaries, most recent first. Failure
// patterns are not hydrated; trend views only need the headline numbers.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	rows, err := s.db.Query(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer rows.Close()

	var summaries []models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		if err := rows.Scan(
			&s.RunID, &s.Timestamp, &s.TotalQueries,
			&s.Passed, &s.Failed, &s.PassRate, &s.AvgResponseTimeMs,
		); err != nil {
			return nil, errors.NewDatabaseConnectionFailedError(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}

	return summaries, nil
}
