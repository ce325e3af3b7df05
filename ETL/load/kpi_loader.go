package load

import (
	"database/sql"
	"fmt"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// KPILoader stores the KPI summary of a run
type KPILoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewKPILoader creates a new KPILoader
func NewKPILoader(db *sql.DB, logger *utils.ETLLogger) *KPILoader {
	return &KPILoader{
		db:     db,
		logger: logger,
	}
}

// Load writes one kpi_summary row for the run, replacing an existing one
func (l *KPILoader) Load(runID string, out *models.ProcessedData) error {
	if out == nil || out.KPIs == nil {
		l.logger.Debug("no KPI summary to load")
		return nil
	}
	k := out.KPIs

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM kpi_summary WHERE run_id = ?`, runID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing KPI summary of run %s: %w", runID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO kpi_summary
		(run_id, total_tickets, total_students, total_staff, semester_passes,
		weekly_passes, round_trip_passes, summer_passes, staff_monthly_passes,
		special_passes, guest_passes, tickets_sold, dropped_rows, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		k.TotalTickets,
		k.TotalEstudiantes,
		k.TotalColaboradores,
		k.PasesSemestrales,
		k.PasesSemanales,
		k.PasesRedondos,
		k.PasesVerano,
		k.PasesMensualColaborador,
		k.PasesEspeciales,
		k.PasesInvitado,
		out.TicketsSold,
		out.DroppedRows,
		out.FinishedAt.UTC(),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting KPI summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("committing KPI summary: %w", err)
	}
	return nil
}

// Get reads the KPI summary stored for a run, nil when none exists
func (l *KPILoader) Get(runID string) (*models.KPISummary, error) {
	var k models.KPISummary
	err := l.db.QueryRow(`
		SELECT total_tickets, total_students, total_staff, semester_passes,
		weekly_passes, round_trip_passes, summer_passes, staff_monthly_passes,
		special_passes, guest_passes
		FROM kpi_summary WHERE run_id = ?
	`, runID).Scan(
		&k.TotalTickets,
		&k.TotalEstudiantes,
		&k.TotalColaboradores,
		&k.PasesSemestrales,
		&k.PasesSemanales,
		&k.PasesRedondos,
		&k.PasesVerano,
		&k.PasesMensualColaborador,
		&k.PasesEspeciales,
		&k.PasesInvitado,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading KPI summary of run %s: %w", runID, err)
	}
	return &k, nil
}
