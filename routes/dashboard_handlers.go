// routes/dashboard_handlers.go
package routes

import (
	"net/http"

	"github.com/LilVoxy/mayabus_analytics/ETL/aggregate"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// Dashboard states
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
)

// DashboardResponse is the filtered view of the newest run
type DashboardResponse struct {
	Status          string                  `json:"status"`
	RunID           string                  `json:"runId,omitempty"`
	CombinedData    []models.CombinedRecord `json:"combinedData"`
	KPIs            *models.KPISummary      `json:"kpis"`
	AvailableYears  []string                `json:"availableYears"`
	AvailableMonths []string                `json:"availableMonths"`
	TicketsSold     int                     `json:"ticketsSold"`
	DroppedRows     int                     `json:"droppedRows"`
	ErrorMessage    string                  `json:"errorMessage,omitempty"`
	Backup          *models.BackupSnapshot  `json:"backupData,omitempty"`
}

// BackupResponse carries the raw rows of a failed run
type BackupResponse struct {
	RunID  string                 `json:"runId"`
	Backup *models.BackupSnapshot `json:"backupData"`
}

// parseFilter reads the year, month and userType query values
func parseFilter(r *http.Request) (aggregate.Filter, error) {
	q := r.URL.Query()
	return aggregate.NewFilter(q.Get("year"), q.Get("month"), q.Get("userType"))
}

// DashboardHandler returns the newest run narrowed by the query filter
func DashboardHandler(pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp := DashboardResponse{
			Status:          StatusPending,
			CombinedData:    []models.CombinedRecord{},
			AvailableYears:  []string{},
			AvailableMonths: []string{},
		}

		out := pipeline.Latest()
		switch {
		case out == nil:
		case out.Failed():
			resp.Status = StatusFailed
			resp.RunID = out.RunID
			resp.ErrorMessage = out.ErrorMessage
			resp.Backup = out.Backup
		default:
			view := filter.Apply(out.CombinedData)
			resp.Status = StatusReady
			if !out.HasRecords() {
				resp.Status = StatusEmpty
			}
			resp.RunID = out.RunID
			if view.Records != nil {
				resp.CombinedData = view.Records
			}
			resp.KPIs = view.KPIs
			if out.AvailableYears != nil {
				resp.AvailableYears = out.AvailableYears
			}
			if out.AvailableMonths != nil {
				resp.AvailableMonths = out.AvailableMonths
			}
			resp.TicketsSold = out.TicketsSold
			resp.DroppedRows = out.DroppedRows
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// BackupHandler returns the backup of the newest run when it failed, or the
// newest persisted backup otherwise
func BackupHandler(pipeline Pipeline, store BackupStore, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if out := pipeline.Latest(); out.Failed() && out.Backup.HasData() {
			writeJSON(w, http.StatusOK, BackupResponse{RunID: out.RunID, Backup: out.Backup})
			return
		}

		if store != nil {
			runID, snapshot, err := store.LatestBackup()
			if err != nil {
				logger.Error("reading stored backup: %v", err)
				writeError(w, http.StatusInternalServerError, "backup could not be read")
				return
			}
			if snapshot != nil {
				writeJSON(w, http.StatusOK, BackupResponse{RunID: runID, Backup: snapshot})
				return
			}
		}

		writeError(w, http.StatusNotFound, "no backup available")
	}
}
