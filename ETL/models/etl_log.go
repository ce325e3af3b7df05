package models

import (
	"time"
)

// Run statuses of the etl_run_log table
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog is one row of the reconciliation run log
type ETLRunLog struct {
	ID                   int64     `json:"id"`
	RunID                string    `json:"run_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	TicketRows           int       `json:"ticket_rows"`
	ServiceRows          int       `json:"service_rows"`
	ValidationRows       int       `json:"validation_rows"`
	RecordsProduced      int       `json:"records_produced"`
	DroppedRows          int       `json:"dropped_rows"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunStats are the row counts recorded for a successful run
type RunStats struct {
	TicketRows      int
	ServiceRows     int
	ValidationRows  int
	RecordsProduced int
	DroppedRows     int
}

// NewRunStats derives the run counters from the input datasets and the output
func NewRunStats(datasets Datasets, out *ProcessedData) RunStats {
	stats := RunStats{
		TicketRows:     len(datasets.Tickets),
		ServiceRows:    len(datasets.Services),
		ValidationRows: len(datasets.Validations),
	}
	if out != nil {
		stats.RecordsProduced = len(out.CombinedData)
		stats.DroppedRows = out.DroppedRows
	}
	return stats
}

// ETLLogRepository persists the run log
type ETLLogRepository interface {
	// CreateLogEntry inserts an in_progress row for the run
	CreateLogEntry(runID string, startTime time.Time) (int64, error)

	// UpdateLogEntrySuccess closes the row of a successful run
	UpdateLogEntrySuccess(id int64, startTime, endTime time.Time, stats RunStats) error

	// UpdateLogEntryFailure closes the row of a failed run
	UpdateLogEntryFailure(id int64, startTime, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun returns the latest successful run, nil if none
	GetLastSuccessfulRun() (*ETLRunLog, error)

	// GetETLRunStats returns the runs started since the given time, newest first
	GetETLRunStats(since time.Time) ([]ETLRunLog, error)
}

// ETLStateMonitor summarizes the run log
type ETLStateMonitor struct {
	LastSuccessfulRun       *ETLRunLog `json:"last_successful_run"`
	LastFailedRun           *ETLRunLog `json:"last_failed_run,omitempty"`
	TotalSuccessfulRuns     int        `json:"total_successful_runs"`
	TotalFailedRuns         int        `json:"total_failed_runs"`
	AvgExecutionTimeSeconds float64    `json:"avg_execution_time_seconds"`
	TotalRecordsProduced    int        `json:"total_records_produced"`
}
