package load

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// ErrMissingRunID is returned when a result without run id is loaded
var ErrMissingRunID = errors.New("processed data has no run id")

// LoadManager coordinates the Load phase of a run
type LoadManager struct {
	db      *sql.DB
	logger  *utils.ETLLogger
	loader  *SQLLoader
	runLogs *models.SQLETLLogRepository
}

// NewLoadManager creates a new LoadManager
func NewLoadManager(db *sql.DB, dialect config.Dialect, logger *utils.ETLLogger) *LoadManager {
	return &LoadManager{
		db:      db,
		logger:  logger,
		loader:  NewSQLLoader(db, dialect, logger),
		runLogs: models.NewSQLETLLogRepository(db, dialect),
	}
}

// EnsureSchema creates every table used by the runner
func (m *LoadManager) EnsureSchema() error {
	if err := m.runLogs.CreateETLLogTable(); err != nil {
		return err
	}
	return m.loader.CreateTables()
}

// RunLogs returns the run log repository sharing this manager's database
func (m *LoadManager) RunLogs() *models.SQLETLLogRepository {
	return m.runLogs
}

// Loader returns the underlying SQL loader
func (m *LoadManager) Loader() *SQLLoader {
	return m.loader
}

// Load executes the Load phase for the output of the Transform phase.
// Nothing is stored once ctx is done.
func (m *LoadManager) Load(ctx context.Context, out *models.ProcessedData) error {
	if out == nil {
		return nil
	}
	if out.RunID == "" {
		return ErrMissingRunID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	m.logger.LogLoadStart()

	// 1. Backup of a failed run
	if out.Failed() {
		if err := m.loader.LoadBackup(out.RunID, out.Backup); err != nil {
			m.logger.Error("loading backup snapshot: %v", err)
			return fmt.Errorf("loading backup snapshot: %w", err)
		}
		m.logger.LogLoadComplete(0, time.Since(startTime))
		return nil
	}

	// 2. Combined records
	if err := m.loader.LoadRecords(out.RunID, out.CombinedData); err != nil {
		m.logger.Error("loading combined records: %v", err)
		return fmt.Errorf("loading combined records: %w", err)
	}

	// 3. KPI summary
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.loader.LoadKPIs(out.RunID, out); err != nil {
		m.logger.Error("loading KPI summary: %v", err)
		return fmt.Errorf("loading KPI summary: %w", err)
	}

	m.logger.LogLoadComplete(len(out.CombinedData), time.Since(startTime))
	return nil
}
