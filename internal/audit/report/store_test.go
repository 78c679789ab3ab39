package report

import (
	"context"
	"testing"

	"search-audit/internal/common/database"
	"search-audit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(&database.PostgresClient{DB: db}), mock
}

func TestInsertRun(t *testing.T) {
	store, mock := newTestStore(t)

	summary := models.RunSummary{
		RunID:             "run-1",
		Timestamp:         "2026-09-01T00:00:00Z",
		TotalQueries:      100,
		Passed:            92,
		Failed:            8,
		PassRate:          92.0,
		AvgResponseTimeMs: 250,
		FailurePatterns: []models.FailurePattern{
			{Pattern: "ZERO_RESULTS", Count: 5, Examples: []string{"xyzzy"}},
		},
	}

	mock.ExpectExec("INSERT INTO audit_runs").
		WithArgs("run-1", "2026-09-01T00:00:00Z", 100, 92, 8, 92.0, int64(250), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.InsertRun(context.Background(), summary)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRunDatabaseError(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO audit_runs").
		WillReturnError(assert.AnError)

	err := store.InsertRun(context.Background(), models.RunSummary{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_INSERT_FAILED")
}

func TestRecentRuns(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{
		"run_id", "completed_at", "total_queries", "passed", "failed", "pass_rate", "avg_response_ms",
	}).
		AddRow("run-2", "2026-09-01T06:00:00Z", 100, 95, 5, 95.0, int64(240)).
		AddRow("run-1", "2026-09-01T00:00:00Z", 100, 92, 8, 92.0, int64(250))

	mock.ExpectQuery("SELECT run_id, completed_at").
		WithArgs(10).
		WillReturnRows(rows)

	summaries, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "run-2", summaries[0].RunID, "most recent run first")
	assert.Equal(t, 95.0, summaries[0].PassRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
