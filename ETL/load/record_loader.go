package load

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

const recordBatchSize = 500

// RecordLoader stores combined records
type RecordLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewRecordLoader creates a new RecordLoader
func NewRecordLoader(db *sql.DB, logger *utils.ETLLogger) *RecordLoader {
	return &RecordLoader{
		db:     db,
		logger: logger,
	}
}

// Load replaces the records of a run in one transaction. Inserts are issued
// in batches of recordBatchSize.
func (l *RecordLoader) Load(runID string, records []models.CombinedRecord) error {
	if len(records) == 0 {
		l.logger.Debug("no combined records to load")
		return nil
	}

	startTime := time.Now()
	l.logger.Info("loading combined records (total: %d)", len(records))

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Clear an earlier load of the same run
	if _, err := tx.Exec(`DELETE FROM combined_records WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clearing combined records of run %s: %w", runID, err)
	}

	// 2. Insert the records batch by batch
	stmt, err := tx.Prepare(`
		INSERT INTO combined_records
		(run_id, position, record_date, user_name, user_type, route, validated,
		pass_type, tickets, service_run_id, occupancy, used_tickets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing combined record insert: %w", err)
	}
	defer stmt.Close()

	for from := 0; from < len(records); from += recordBatchSize {
		to := min(from+recordBatchSize, len(records))
		if err := insertBatch(stmt, runID, from, records[from:to]); err != nil {
			return err
		}
		l.logger.Debug("inserted %d of %d combined records", to, len(records))
	}

	// 3. Commit
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing combined records: %w", err)
	}

	l.logger.Info("combined records loaded: %d, duration: %v", len(records), time.Since(startTime))
	return nil
}

func insertBatch(stmt *sql.Stmt, runID string, offset int, batch []models.CombinedRecord) error {
	for i, rec := range batch {
		_, err := stmt.Exec(
			runID,
			offset+i,
			rec.Date,
			rec.User,
			string(rec.UserType),
			rec.Route,
			string(rec.Validated),
			nullString(rec.PassType),
			nullInt(rec.Tickets),
			rec.RunID,
			nullFloat(rec.Occupancy),
			nullInt(rec.UsedTickets),
		)
		if err != nil {
			return fmt.Errorf("inserting combined record %d: %w", offset+i, err)
		}
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
