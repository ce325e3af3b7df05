package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
)

func newTestRepository(t *testing.T) *SQLETLLogRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLETLLogRepository(db, config.DialectSQLite)
	require.NoError(t, repo.CreateETLLogTable())
	return repo
}

func TestRunLogLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	last, err := repo.GetLastSuccessfulRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	okID, err := repo.CreateLogEntry("run-ok", start)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLogEntrySuccess(okID, start, start.Add(2*time.Second), RunStats{
		TicketRows: 3, ServiceRows: 2, ValidationRows: 5, RecordsProduced: 4, DroppedRows: 1,
	}))

	failID, err := repo.CreateLogEntry("run-fail", start.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateLogEntryFailure(failID, start.Add(time.Minute), start.Add(time.Minute+time.Second), "schema mismatch"))

	_, err = repo.CreateLogEntry("run-open", start.Add(2*time.Minute))
	require.NoError(t, err)

	last, err = repo.GetLastSuccessfulRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "run-ok", last.RunID)
	assert.Equal(t, RunStatusSuccess, last.Status)
	assert.Equal(t, 4, last.RecordsProduced)
	assert.Equal(t, 1, last.DroppedRows)
	assert.InDelta(t, 2.0, last.ExecutionTimeSeconds, 1e-6)
	assert.True(t, last.StartTime.Equal(start))

	runs, err := repo.GetETLRunStats(start)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-open", runs[0].RunID)
	assert.Equal(t, RunStatusInProgress, runs[0].Status)
	assert.True(t, runs[0].EndTime.IsZero())
	assert.Equal(t, "schema mismatch", runs[1].ErrorMessage)

	monitor, err := repo.GetETLStateMonitor()
	require.NoError(t, err)
	assert.Equal(t, 1, monitor.TotalSuccessfulRuns)
	assert.Equal(t, 1, monitor.TotalFailedRuns)
	assert.Equal(t, 4, monitor.TotalRecordsProduced)
	require.NotNil(t, monitor.LastFailedRun)
	assert.Equal(t, "run-fail", monitor.LastFailedRun.RunID)
}

func TestNewRunStats(t *testing.T) {
	ds := Datasets{
		Tickets:     []RawRow{NewRawRow()},
		Validations: []RawRow{NewRawRow(), NewRawRow()},
	}
	stats := NewRunStats(ds, &ProcessedData{CombinedData: make([]CombinedRecord, 1), DroppedRows: 1})

	assert.Equal(t, RunStats{TicketRows: 1, ValidationRows: 2, RecordsProduced: 1, DroppedRows: 1}, stats)
	assert.Equal(t, RunStats{TicketRows: 1, ValidationRows: 2}, NewRunStats(ds, nil))
}
