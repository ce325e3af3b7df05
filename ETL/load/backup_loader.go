package load

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
	"github.com/LilVoxy/mayabus_analytics/processor"
)

// BackupLoader stores backup snapshots as compressed blobs
type BackupLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
	now    func() time.Time
}

// NewBackupLoader creates a new BackupLoader
func NewBackupLoader(db *sql.DB, logger *utils.ETLLogger) *BackupLoader {
	return &BackupLoader{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Load writes the snapshot of a run. Snapshots without rows are skipped.
func (l *BackupLoader) Load(runID string, snapshot *models.BackupSnapshot) error {
	if !snapshot.HasData() {
		l.logger.Debug("no backup snapshot to load")
		return nil
	}

	blob, err := processor.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = l.db.Exec(`
		INSERT INTO backup_snapshots (run_id, captured_at, payload)
		VALUES (?, ?, ?)
	`, runID, l.now().UTC(), blob)
	if err != nil {
		return fmt.Errorf("inserting backup snapshot: %w", err)
	}

	l.logger.Info("backup snapshot of run %s stored (%d bytes)", runID, len(blob))
	return nil
}

// Latest returns the run id and snapshot of the newest stored backup.
// It returns an empty id and nil snapshot when none exists.
func (l *BackupLoader) Latest() (string, *models.BackupSnapshot, error) {
	var (
		runID string
		blob  []byte
	)
	err := l.db.QueryRow(`
		SELECT run_id, payload FROM backup_snapshots
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`).Scan(&runID, &blob)
	if err == sql.ErrNoRows {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("reading latest backup snapshot: %w", err)
	}

	snapshot, err := processor.DecodeSnapshot(blob)
	if err != nil {
		return "", nil, fmt.Errorf("backup snapshot of run %s: %w", runID, err)
	}
	return runID, snapshot, nil
}
