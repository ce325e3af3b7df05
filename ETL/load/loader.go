package load

import (
	"database/sql"
	"fmt"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// Loader persists the output of a reconciliation run
type Loader interface {
	// LoadRecords stores the combined records of a run
	LoadRecords(runID string, records []models.CombinedRecord) error

	// LoadKPIs stores the KPI summary and the ticket sales figure of a run
	LoadKPIs(runID string, out *models.ProcessedData) error

	// LoadBackup stores the raw rows captured by a failed run
	LoadBackup(runID string, snapshot *models.BackupSnapshot) error
}

var _ Loader = (*SQLLoader)(nil)

// SQLLoader implements Loader over MySQL or SQLite
type SQLLoader struct {
	db      *sql.DB
	dialect config.Dialect
	logger  *utils.ETLLogger

	recordLoader *RecordLoader
	kpiLoader    *KPILoader
	backupLoader *BackupLoader
}

// NewSQLLoader creates a new SQLLoader
func NewSQLLoader(db *sql.DB, dialect config.Dialect, logger *utils.ETLLogger) *SQLLoader {
	return &SQLLoader{
		db:           db,
		dialect:      dialect,
		logger:       logger,
		recordLoader: NewRecordLoader(db, logger),
		kpiLoader:    NewKPILoader(db, logger),
		backupLoader: NewBackupLoader(db, logger),
	}
}

// CreateTables creates the result tables if they do not exist
func (l *SQLLoader) CreateTables() error {
	pk := l.dialect.AutoIncrementPK()
	statements := []struct {
		table string
		query string
	}{
		{"combined_records", fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS combined_records (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			position INT NOT NULL,
			record_date VARCHAR(16) NOT NULL,
			user_name VARCHAR(255) NOT NULL,
			user_type VARCHAR(16) NOT NULL,
			route VARCHAR(255) NOT NULL,
			validated VARCHAR(4) NOT NULL,
			pass_type VARCHAR(255) NULL,
			tickets INT NULL,
			service_run_id VARCHAR(255) NOT NULL,
			occupancy DOUBLE NULL,
			used_tickets INT NULL
		)`, pk)},
		{"kpi_summary", `
		CREATE TABLE IF NOT EXISTS kpi_summary (
			run_id VARCHAR(36) NOT NULL PRIMARY KEY,
			total_tickets INT NOT NULL,
			total_students INT NOT NULL,
			total_staff INT NOT NULL,
			semester_passes INT NOT NULL,
			weekly_passes INT NOT NULL,
			round_trip_passes INT NOT NULL,
			summer_passes INT NOT NULL,
			staff_monthly_passes INT NOT NULL,
			special_passes INT NOT NULL,
			guest_passes INT NOT NULL,
			tickets_sold INT NOT NULL,
			dropped_rows INT NOT NULL,
			finished_at TIMESTAMP NULL
		)`},
		{"backup_snapshots", fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS backup_snapshots (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			captured_at TIMESTAMP NOT NULL,
			payload %s NOT NULL
		)`, pk, l.dialect.BlobType())},
	}

	for _, s := range statements {
		if _, err := l.db.Exec(s.query); err != nil {
			return fmt.Errorf("creating %s table: %w", s.table, err)
		}
	}
	return nil
}

// LoadRecords stores the combined records of a run
func (l *SQLLoader) LoadRecords(runID string, records []models.CombinedRecord) error {
	return l.recordLoader.Load(runID, records)
}

// LoadKPIs stores the KPI summary of a run
func (l *SQLLoader) LoadKPIs(runID string, out *models.ProcessedData) error {
	return l.kpiLoader.Load(runID, out)
}

// LoadBackup stores the backup snapshot of a failed run
func (l *SQLLoader) LoadBackup(runID string, snapshot *models.BackupSnapshot) error {
	return l.backupLoader.Load(runID, snapshot)
}

// LatestBackup returns the most recent stored backup snapshot
func (l *SQLLoader) LatestBackup() (string, *models.BackupSnapshot, error) {
	return l.backupLoader.Latest()
}

// KPIs returns the KPI summary stored for a run
func (l *SQLLoader) KPIs(runID string) (*models.KPISummary, error) {
	return l.kpiLoader.Get(runID)
}
