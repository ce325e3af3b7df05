package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
)

const runLogColumns = `
	id, run_id, start_time, end_time, status,
	ticket_rows, service_rows, validation_rows, records_produced, dropped_rows,
	COALESCE(error_message, ''), COALESCE(execution_time_seconds, 0)`

// SQLETLLogRepository implements ETLLogRepository over MySQL or SQLite
type SQLETLLogRepository struct {
	db      *sql.DB
	dialect config.Dialect
}

// NewSQLETLLogRepository creates a new SQLETLLogRepository
func NewSQLETLLogRepository(db *sql.DB, dialect config.Dialect) *SQLETLLogRepository {
	return &SQLETLLogRepository{
		db:      db,
		dialect: dialect,
	}
}

// CreateETLLogTable creates the run log table if it does not exist
func (r *SQLETLLogRepository) CreateETLLogTable() error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id %s,
		run_id VARCHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'in_progress',
		ticket_rows INT DEFAULT 0,
		service_rows INT DEFAULT 0,
		validation_rows INT DEFAULT 0,
		records_produced INT DEFAULT 0,
		dropped_rows INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT
	)`, r.dialect.AutoIncrementPK())

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("creating etl_run_log table: %w", err)
	}
	return nil
}

// CreateLogEntry inserts an in_progress row for the run
func (r *SQLETLLogRepository) CreateLogEntry(runID string, startTime time.Time) (int64, error) {
	query := `
	INSERT INTO etl_run_log (run_id, start_time, status)
	VALUES (?, ?, 'in_progress')
	`

	result, err := r.db.Exec(query, runID, startTime.UTC())
	if err != nil {
		return 0, fmt.Errorf("creating run log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run log entry id: %w", err)
	}

	return id, nil
}

// UpdateLogEntrySuccess closes the row of a successful run
func (r *SQLETLLogRepository) UpdateLogEntrySuccess(id int64, startTime, endTime time.Time, stats RunStats) error {
	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		ticket_rows = ?,
		service_rows = ?,
		validation_rows = ?,
		records_produced = ?,
		dropped_rows = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err := r.db.Exec(
		query,
		endTime.UTC(),
		stats.TicketRows,
		stats.ServiceRows,
		stats.ValidationRows,
		stats.RecordsProduced,
		stats.DroppedRows,
		endTime.Sub(startTime).Seconds(),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating run log entry %d: %w", id, err)
	}

	return nil
}

// UpdateLogEntryFailure closes the row of a failed run
func (r *SQLETLLogRepository) UpdateLogEntryFailure(id int64, startTime, endTime time.Time, errorMessage string) error {
	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err := r.db.Exec(query, endTime.UTC(), errorMessage, endTime.Sub(startTime).Seconds(), id)
	if err != nil {
		return fmt.Errorf("updating run log entry %d: %w", id, err)
	}

	return nil
}

// GetLastSuccessfulRun returns the latest successful run, nil if none
func (r *SQLETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	return r.lastWithStatus(RunStatusSuccess)
}

// GetLastFailedRun returns the latest failed run, nil if none
func (r *SQLETLLogRepository) GetLastFailedRun() (*ETLRunLog, error) {
	return r.lastWithStatus(RunStatusFailed)
}

func (r *SQLETLLogRepository) lastWithStatus(status string) (*ETLRunLog, error) {
	query := `SELECT ` + runLogColumns + `
	FROM etl_run_log
	WHERE status = ?
	ORDER BY end_time DESC, id DESC
	LIMIT 1
	`

	log, err := scanRunLog(r.db.QueryRow(query, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last %s run: %w", status, err)
	}

	return log, nil
}

// GetETLRunStats returns the runs started since the given time, newest first
func (r *SQLETLLogRepository) GetETLRunStats(since time.Time) ([]ETLRunLog, error) {
	query := `SELECT ` + runLogColumns + `
	FROM etl_run_log
	WHERE start_time >= ?
	ORDER BY start_time DESC, id DESC
	`

	rows, err := r.db.Query(query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying run log: %w", err)
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		log, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run log entry: %w", err)
		}
		logs = append(logs, *log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run log: %w", err)
	}

	return logs, nil
}

// GetETLStateMonitor summarizes the run log
func (r *SQLETLLogRepository) GetETLStateMonitor() (*ETLStateMonitor, error) {
	lastSuccessful, err := r.GetLastSuccessfulRun()
	if err != nil {
		return nil, err
	}
	lastFailed, err := r.GetLastFailedRun()
	if err != nil {
		return nil, err
	}

	var monitor ETLStateMonitor
	err = r.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN status = 'success' THEN execution_time_seconds ELSE NULL END), 0),
			COALESCE(SUM(CASE WHEN status = 'success' THEN records_produced ELSE 0 END), 0)
		FROM etl_run_log
	`).Scan(&monitor.TotalSuccessfulRuns, &monitor.TotalFailedRuns, &monitor.AvgExecutionTimeSeconds, &monitor.TotalRecordsProduced)
	if err != nil {
		return nil, fmt.Errorf("aggregating run log: %w", err)
	}

	monitor.LastSuccessfulRun = lastSuccessful
	monitor.LastFailedRun = lastFailed
	return &monitor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunLog(row rowScanner) (*ETLRunLog, error) {
	var (
		log     ETLRunLog
		endTime sql.NullTime
	)
	err := row.Scan(
		&log.ID, &log.RunID, &log.StartTime, &endTime, &log.Status,
		&log.TicketRows, &log.ServiceRows, &log.ValidationRows, &log.RecordsProduced, &log.DroppedRows,
		&log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		log.EndTime = endTime.Time
	}
	return &log, nil
}
